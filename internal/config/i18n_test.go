package config_test

import (
	"context"
	"testing"

	"github.com/OliveiraNt/maned-mirror/internal/config"
	"github.com/invopop/ctxi18n"
	"github.com/invopop/ctxi18n/i18n"
	"github.com/stretchr/testify/require"
)

func TestInitI18n_LoadsLocales(t *testing.T) {
	require.NotPanics(t, config.InitI18n)

	ctx, err := ctxi18n.WithLocale(context.Background(), "pt-BR")
	require.NoError(t, err)
	require.Equal(t, "Espelho de tópicos", i18n.T(ctx, "status.title"))

	ctx, err = ctxi18n.WithLocale(context.Background(), "en")
	require.NoError(t, err)
	require.Equal(t, "Topic mirror", i18n.T(ctx, "status.title"))
}
