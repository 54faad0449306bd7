package api

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"
	goerrors "github.com/goliatone/go-errors"
	ens "github.com/wealdtech/go-ens/v3"
)

// ENSResolver resolves primary names against the naming registry through a
// chain RPC endpoint, memoizing results in a bounded TTL cache.
type ENSResolver struct {
	client *ethclient.Client
	cache  *ensCache
	logger Logger
}

// NewENSResolver dials the chain RPC endpoint and returns a resolver.
func NewENSResolver(cfg Config) (*ENSResolver, error) {
	url := cfg.GetChainRPCURL()
	if url == "" {
		return nil, goerrors.New("chain RPC URL is required", goerrors.CategoryBadInput)
	}

	client, err := ethclient.Dial(url)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to dial chain RPC")
	}

	return &ENSResolver{
		client: client,
		cache:  newENSCache(cfg.GetENSCacheCapacity(), cfg.GetENSCacheTTL()),
		logger: defLogger{},
	}, nil
}

func (r *ENSResolver) WithLogger(logger Logger) *ENSResolver {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// PrimaryName returns the reverse-resolved ENS name for the address, or the
// empty string when none is registered. Results, including the empty result,
// are cached.
func (r *ENSResolver) PrimaryName(ctx context.Context, address string) (string, error) {
	checksummed, err := ChecksumAddress(address)
	if err != nil {
		return "", err
	}
	key := checksummed.Hex()

	if name, ok := r.cache.Get(key); ok {
		return name, nil
	}

	name, err := ens.ReverseResolve(r.client, checksummed)
	if err != nil {
		// Reverse resolution errors include "no name set"; treat every
		// failure as unresolved and let the caller fall back.
		r.logger.Debug("ENS reverse resolution failed", "address", key, "error", err)
		name = ""
	}

	r.cache.Set(key, name)
	return name, nil
}
