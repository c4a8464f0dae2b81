// Package vault serves resources from a HashiCorp Vault KV version 2 mount.
//
// The client is configured from Vault's standard environment (VAULT_ADDR,
// VAULT_TOKEN, VAULT_CACERT, ...). TRUSTEE_VAULT_MOUNT selects the KV mount,
// "secret" by default.
//
// A resource is the secret path under the mount. Supported query parameters:
//
//	field=<key>    return only that key; strings are returned raw
//	version=<n>    read a specific secret version
//
// Without field the whole secret data is returned as JSON.
package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/hashicorp/vault/api"

	"github.com/cclaudio/trustee/internal/plugin"
)

const (
	Name         = "vault"
	MountEnv     = "TRUSTEE_VAULT_MOUNT"
	DefaultMount = "secret"
)

type Plugin struct {
	kv *api.KVv2
}

func New(client *api.Client, mount string) *Plugin {
	if mount == "" {
		mount = DefaultMount
	}
	return &Plugin{kv: client.KVv2(mount)}
}

// NewFromEnv builds a client from the process environment.
func NewFromEnv() (*Plugin, error) {
	cfg := api.DefaultConfig()
	if cfg.Error != nil {
		return nil, fmt.Errorf("vault config: %w", cfg.Error)
	}
	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault client: %w", err)
	}
	return New(client, os.Getenv(MountEnv)), nil
}

func (p *Plugin) Name() string { return Name }

func (p *Plugin) GetResource(ctx context.Context, resource, queryString string) ([]byte, error) {
	if resource == "" {
		return nil, errors.New("empty secret path")
	}
	q, err := url.ParseQuery(queryString)
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}

	var secret *api.KVSecret
	if v := q.Get("version"); v != "" {
		version, convErr := strconv.Atoi(v)
		if convErr != nil || version <= 0 {
			return nil, fmt.Errorf("invalid version %q", v)
		}
		secret, err = p.kv.GetVersion(ctx, resource, version)
	} else {
		secret, err = p.kv.Get(ctx, resource)
	}
	if err != nil {
		if errors.Is(err, api.ErrSecretNotFound) {
			return nil, fmt.Errorf("%w: %s", plugin.ErrResourceNotFound, resource)
		}
		return nil, fmt.Errorf("read secret %s: %w", resource, err)
	}

	field := q.Get("field")
	if field == "" {
		return json.Marshal(secret.Data)
	}
	v, ok := secret.Data[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s field %s", plugin.ErrResourceNotFound, resource, field)
	}
	if s, ok := v.(string); ok {
		return []byte(s), nil
	}
	return json.Marshal(v)
}

func init() {
	plugin.Register(plugin.BuilderFunc{PluginName: Name, Func: func(string) (plugin.Plugin, error) {
		return NewFromEnv()
	}})
}
