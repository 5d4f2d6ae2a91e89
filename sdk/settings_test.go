package sdk

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags,omitempty"`
}

func defaultTestConfig() testConfig {
	return testConfig{Name: "default", Count: 1}
}

const testSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": "string"},
		"count": {"type": "integer", "minimum": 0}
	},
	"required": ["name"]
}`

func TestCodecRoundTrip(t *testing.T) {
	codec := NewCodec[testConfig]("")

	tests := []struct {
		name string
		cfg  testConfig
	}{
		{"default", defaultTestConfig()},
		{"zero", testConfig{}},
		{"line breaks", testConfig{Name: "a\r\nb", Count: 3, Tags: []string{"x\ny"}}},
		{"unicode", testConfig{Name: "搜索", Tags: []string{"é"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := codec.Marshal(&tt.cfg)
			require.NoError(t, err)
			assert.NotContains(t, s, "\n")
			assert.NotContains(t, s, "\r")

			got, err := codec.Unmarshal(s)
			require.NoError(t, err)
			assert.Equal(t, tt.cfg, *got)
		})
	}
}

func TestCodecUnmarshalInvalid(t *testing.T) {
	codec := NewCodec[testConfig]("")

	_, err := codec.Unmarshal("{not json")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCodecSchema(t *testing.T) {
	codec := NewCodec[testConfig](testSchema)

	cfg, err := codec.Unmarshal(`{"name":"ok","count":2}`)
	require.NoError(t, err)
	assert.Equal(t, testConfig{Name: "ok", Count: 2}, *cfg)

	_, err = codec.Unmarshal(`{"name":"bad","count":-1}`)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = codec.Unmarshal(`{"count":2}`)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCodecClone(t *testing.T) {
	codec := NewCodec[testConfig]("")
	orig := testConfig{Name: "a", Tags: []string{"x"}}

	clone, err := codec.Clone(&orig)
	require.NoError(t, err)
	assert.Equal(t, orig, *clone)

	clone.Tags[0] = "y"
	assert.Equal(t, "x", orig.Tags[0])
}

func TestConfigHandle(t *testing.T) {
	h := NewConfigHandle(testConfig{Name: "handed"})

	cfg := takeConfigHandle[testConfig](h)
	assert.Equal(t, "handed", cfg.Name)

	assert.Panics(t, func() {
		takeConfigHandle[testConfig](h)
	}, "a handle is consumed once")

	other := NewConfigHandle(42)
	assert.Panics(t, func() {
		takeConfigHandle[testConfig](other)
	})
}

func TestConfigFileLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	file := NewConfigFile(path, NewCodec[testConfig](""))

	cfg, err := file.Load()
	require.NoError(t, err)
	assert.Nil(t, cfg, "missing file")

	want := testConfig{Name: "saved", Count: 5}
	require.NoError(t, file.Save(&want))

	got, err := file.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file removed")
}

func TestConfigFileLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"count":1}`), 0644))

	file := NewConfigFile(path, NewCodec[testConfig](testSchema))
	_, err := file.Load()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigFileWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	file := NewConfigFile(path, NewCodec[testConfig](""))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan testConfig, 8)
	errc := make(chan error, 1)
	go func() {
		errc <- file.Watch(ctx, func(cfg *testConfig) {
			changes <- *cfg
		})
	}()

	// The watch starts asynchronously; keep saving until it is observed.
	want := testConfig{Name: "watched", Count: 7}
	require.Eventually(t, func() bool {
		if err := file.Save(&want); err != nil {
			return false
		}
		select {
		case got := <-changes:
			return assert.ObjectsAreEqual(want, got)
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
}
