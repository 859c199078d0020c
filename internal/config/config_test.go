package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHomeContext(t *testing.T) {
	t.Parallel()
	_, ok := HomeFrom(context.Background())
	assert.False(t, ok)

	_, ok = HomeFrom(WithHome(context.Background(), ""))
	assert.False(t, ok, "empty home is unset")

	ctx := WithHome(context.Background(), "/data/tasktalk")
	got, ok := HomeFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "/data/tasktalk", got)
	assert.Equal(t, "/data/tasktalk", MustHomeFrom(ctx))

	assert.Panics(t, func() { MustHomeFrom(context.Background()) })
}

func TestResolveHome(t *testing.T) {
	user, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("UserHomeDir: %v", err)
	}
	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{name: "flag wins over env", flag: "/flag/home/", env: "/env/home", want: filepath.Clean("/flag/home")},
		{name: "env", env: "/env/home", want: filepath.Clean("/env/home")},
		{name: "default", want: filepath.Join(user, ".tasktalk")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(HomeEnv, tt.env)
			got, err := ResolveHome(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHomePaths(t *testing.T) {
	t.Parallel()
	assert.Equal(t, filepath.Join("/h", "protected", "db.sqlite"), DBPath("/h"))
	assert.Equal(t, filepath.Join("/h", "config.yaml"), ConfigPath("/h"))
}
