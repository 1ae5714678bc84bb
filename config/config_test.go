// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gitlab.com/accumulatenetwork/tokenledger/internal/ledger"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
)

func TestPersistence(t *testing.T) {
	for _, ext := range []string{".toml", ".yaml", ".json"} {
		t.Run(ext, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "tokend"+ext)

			cfg := Default()
			cfg.Storage.Type = "badger"
			cfg.API.CorsOrigins = []string{"https://example.com"}
			cfg.API.ReadHeaderTimeout = Duration(3 * time.Second)
			cfg.Consensus.Enabled = true
			require.NoError(t, cfg.SaveTo(file))

			loaded, err := Load(file, nil)
			require.NoError(t, err)
			require.Equal(t, file, loaded.FilePath())

			loaded.file, loaded.fs = "", nil
			require.Equal(t, cfg, loaded)
		})
	}
}

func TestKebabKeys(t *testing.T) {
	fsys := fstest.MapFS{
		"tokend.toml": {Data: []byte(`
genesis = "gen.json"

[storage]
type = "memory"

[api]
listen = "0.0.0.0:8080"
cors-origins = ["a", "b"]
read-header-timeout = "1m"
`)},
	}

	cfg := Default()
	require.NoError(t, cfg.LoadFromFS(fsys, "tokend.toml"))
	require.Equal(t, "gen.json", cfg.Genesis)
	require.Equal(t, "memory", cfg.Storage.Type)
	require.Equal(t, []string{"a", "b"}, cfg.API.CorsOrigins)
	require.Equal(t, time.Minute, cfg.API.ReadHeaderTimeout.Get())
	require.NoError(t, cfg.Validate())
}

func TestDotEnv(t *testing.T) {
	fsys := fstest.MapFS{
		"tokend.yaml": {Data: []byte(`
dot-env: true
api:
  listen: ${API_LISTEN}
`)},
		".env": {Data: []byte("API_LISTEN=127.0.0.1:9999\n")},
	}

	cfg := Default()
	require.NoError(t, cfg.LoadFromFS(fsys, "tokend.yaml"))
	require.Equal(t, "127.0.0.1:9999", cfg.API.Listen)

	// Undefined variables are an error
	fsys["tokend.yaml"] = &fstest.MapFile{Data: []byte(`
dot-env: true
api:
  listen: ${NOPE}
`)}
	cfg = Default()
	require.ErrorIs(t, cfg.LoadFromFS(fsys, "tokend.yaml"), errors.BadRequest)

	// Without dot-env, nothing is expanded
	fsys["tokend.yaml"] = &fstest.MapFile{Data: []byte(`
api:
  listen: ${API_LISTEN}
`)}
	cfg = Default()
	require.NoError(t, cfg.LoadFromFS(fsys, "tokend.yaml"))
	require.Equal(t, "${API_LISTEN}", cfg.API.Listen)
}

func TestOverride(t *testing.T) {
	file := filepath.Join(t.TempDir(), "tokend.toml")
	require.NoError(t, Default().SaveTo(file))

	t.Setenv("TOKEND_API_LISTEN", "127.0.0.1:1234")
	t.Setenv("TOKEND_CONSENSUS_ENABLED", "true")
	t.Setenv("TOKEND_API_CORS_ORIGINS", "x,y")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("storage", "", "")
	require.NoError(t, flags.Parse([]string{"--storage=memory"}))

	v := viper.New()
	require.NoError(t, v.BindPFlag("storage.type", flags.Lookup("storage")))

	cfg, err := Load(file, v)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:1234", cfg.API.Listen)
	require.True(t, cfg.Consensus.Enabled)
	require.Equal(t, []string{"x", "y"}, cfg.API.CorsOrigins)
	require.Equal(t, "memory", cfg.Storage.Type)
	require.Equal(t, 10*time.Second, cfg.API.ReadHeaderTimeout.Get())
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Storage.Type = "mongo"
	require.ErrorIs(t, cfg.Validate(), errors.BadRequest)

	cfg = Default()
	cfg.Storage.Path = ""
	require.Error(t, cfg.Validate())
	cfg.Storage.Type = "memory"
	require.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.API.Listen = "not an address"
	require.Error(t, cfg.Validate())
}

func TestValidateListenAddr(t *testing.T) {
	cases := []struct {
		Addr string
		OK   bool
	}{
		{"127.0.0.1:0", true},
		{"127.0.0.1:26660", true},
		{":8080", true},
		{"localhost:65535", true},
		{"[::1]:0", true},
		{"127.0.0.1", false},
		{"127.0.0.1:65536", false},
		{"127.0.0.1:http", false},
		{"127.0.0.1:-1", false},
	}
	for _, c := range cases {
		t.Run(c.Addr, func(t *testing.T) {
			cfg := Default()
			cfg.API.Listen = c.Addr
			cfg.Instrumentation.Listen = c.Addr
			if c.OK {
				require.NoError(t, cfg.Validate())
			} else {
				require.ErrorIs(t, cfg.Validate(), errors.BadRequest)
			}
		})
	}

	cfg := Default()
	cfg.Instrumentation.Listen = ""
	require.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.Consensus.Enabled = true
	cfg.Consensus.Listen = ""
	require.Error(t, cfg.Validate())
}

func TestPath(t *testing.T) {
	cfg := Default()
	require.Equal(t, "data/ledger.db", cfg.Path(cfg.Storage.Path))

	cfg.SetFilePath("/work/tokend.toml")
	require.Equal(t, filepath.Join("/work", "data/ledger.db"), cfg.Path(cfg.Storage.Path))
	require.Equal(t, "/abs/x", cfg.Path("/abs/x"))
}

func TestUnknownExtension(t *testing.T) {
	require.ErrorIs(t, Default().SaveTo(filepath.Join(t.TempDir(), "tokend.xml")), errors.BadRequest)
}

func TestGenesis(t *testing.T) {
	dir := t.TempDir()
	g := &Genesis{Owner: "alice", TotalSupply: math.MaxUint64, Symbol: "TKN", Name: "Token", Decimals: 18}

	for _, name := range []string{"genesis.yaml", "genesis.json"} {
		file := filepath.Join(dir, name)
		require.NoError(t, g.Save(file))

		loaded, err := LoadGenesis(file)
		require.NoError(t, err)
		require.Equal(t, g, loaded)
	}

	b, err := os.ReadFile(filepath.Join(dir, "genesis.yaml"))
	require.NoError(t, err)
	require.Contains(t, string(b), "total-supply: 18446744073709551615")

	b, err = g.JSON()
	require.NoError(t, err)
	parsed, err := ParseGenesis(b)
	require.NoError(t, err)
	require.Equal(t, g, parsed)

	require.Equal(t, ledger.Params{Owner: "alice", TotalSupply: math.MaxUint64, Symbol: "TKN", Name: "Token", Decimals: 18}, g.Params())

	_, err = ParseGenesis([]byte(`{"total-supply": 5}`))
	require.ErrorIs(t, err, errors.BadRequest)
}

func TestGenesisSupplyRange(t *testing.T) {
	dir := t.TempDir()

	for _, supply := range []uint64{0, math.MaxInt64, math.MaxInt64 + 1, math.MaxUint64} {
		g := &Genesis{Owner: "alice", TotalSupply: supply, Symbol: "TKN"}
		for _, ext := range []string{"yaml", "json", "toml"} {
			file := filepath.Join(dir, fmt.Sprintf("genesis-%d.%s", supply, ext))
			err := g.Save(file)
			if ext == "toml" && supply > math.MaxInt64 {
				// Written TOML must be readable, so the save fails instead
				require.ErrorIs(t, err, errors.BadRequest, ext)
				require.ErrorContains(t, err, "total-supply")
				require.NoFileExists(t, file)
				continue
			}
			require.NoError(t, err, ext)

			loaded, err := LoadGenesis(file)
			require.NoError(t, err, ext)
			require.Equal(t, g, loaded, ext)
		}
	}
}
