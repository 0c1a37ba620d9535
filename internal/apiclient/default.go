package apiclient

import "sync"

var (
	defaultMu   sync.Mutex
	defaultCfg  = DefaultConfig()
	defaultOpts Options

	defaultOnce   sync.Once
	defaultClient *Client
	defaultErr    error
)

// SetDefault records the configuration used by Default. It has no effect once
// Default has been called.
func SetDefault(cfg Config, opts Options) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultCfg = cfg
	defaultOpts = opts
}

// Default returns the process-wide client, constructing it on first use.
func Default() (*Client, error) {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		cfg, opts := defaultCfg, defaultOpts
		defaultMu.Unlock()
		defaultClient, defaultErr = New(cfg, opts)
	})
	return defaultClient, defaultErr
}
