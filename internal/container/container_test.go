package container

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/invoxis/internal/config"
	"github.com/garyjia/invoxis/internal/domain/entity"
	"github.com/garyjia/invoxis/pkg/database"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Database.Path = database.MemoryPath
	cfg.Export.OutputDir = t.TempDir()
	return cfg
}

func TestNewContainer_Validation(t *testing.T) {
	logger := zap.NewNop()

	_, err := NewContainer(nil, logger)
	assert.Error(t, err)

	_, err = NewContainer(DefaultConfig(), nil)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.Export.PageFormat = "Tabloid"
	_, err = NewContainer(cfg, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page_format")

	cfg = DefaultConfig()
	cfg.Invoice.TaxRate = 120
	_, err = NewContainer(cfg, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_tax_rate")
}

func TestContainer_Lifecycle(t *testing.T) {
	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	assert.False(t, c.Ready())

	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(context.Background()), "second start")

	health := c.Health()
	assert.True(t, health.Overall, "%+v", health.Components)
	for _, name := range []string{"database", "workers", "dispatcher", "renderers"} {
		assert.True(t, health.Components[name].Healthy, name)
	}
	assert.Equal(t, 1, c.Workers().GetWorkerCount())

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close(), "second close")
	assert.Error(t, c.Start(context.Background()), "start after close")
}

func TestContainer_IssuerPersistsThroughDatabase(t *testing.T) {
	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	ctx := context.Background()
	drafts := c.Services().Draft

	first, err := drafts.Create(ctx, "acme")
	require.NoError(t, err)

	name, email := "Acme Ltd", "billing@acme.example"
	require.NoError(t, first.Engine.SetIssuer(entity.PartyPatch{Name: &name, Email: &email}))

	saved, found, err := c.Services().Profile.LoadIssuer(ctx, "acme")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, name, saved.Name)

	second, err := drafts.Create(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, email, second.Engine.Issuer().Email)

	other, err := drafts.Create(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, other.Engine.Issuer().Name)
}

func TestContainer_RenderersFollowConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Export.Preview = true

	bundle, err := ProvideRenderers(&cfg.Export, zap.NewNop())
	require.NoError(t, err)

	formats := make([]string, 0, len(bundle.Renderers))
	for _, r := range bundle.Renderers {
		formats = append(formats, r.Format())
	}
	assert.ElementsMatch(t, []string{"pdf", "xlsx"}, formats)
	assert.NotNil(t, bundle.Rasterizer)

	cfg.Export.Preview = false
	bundle, err = ProvideRenderers(&cfg.Export, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, bundle.Rasterizer)
}

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		Database: config.DatabaseConfig{Path: "x.db", MigrationsDir: "migrations"},
		Invoice:  config.InvoiceConfig{DefaultCountry: "Germany", DefaultCurrency: "EUR", DefaultTaxRate: 19, DueDays: 14},
		Profile:  config.ProfileConfig{MaxRecentRecipients: 3, DefaultProfile: "shop"},
		Export:   config.ExportConfig{OutputDir: "out", Scale: 1.5, PageFormat: "Letter", Preview: true, Timeout: time.Second},
		Drafts:   config.DraftsConfig{IdleTTL: time.Minute, SweepInterval: 10 * time.Second},
	}

	cfg := FromAppConfig(app)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "migrations", cfg.Database.MigrationsDir)
	assert.Equal(t, "Germany", cfg.Invoice.Country)
	assert.Equal(t, 19.0, cfg.Invoice.TaxRate)
	assert.Equal(t, 14, cfg.Invoice.DueDays)
	assert.Equal(t, "shop", cfg.Profile.DefaultProfile)
	assert.Equal(t, "Letter", cfg.Export.PageFormat)
	assert.True(t, cfg.Export.Preview)
	assert.Equal(t, 10*time.Second, cfg.Export.LogoFetchTimeout, "kept from defaults")
	assert.Equal(t, time.Minute, cfg.Worker.DraftIdleTTL)
}

func TestConvertToZapFields(t *testing.T) {
	fields := convertToZapFields("draft_id", "d-1", 42, "skipped", "count", 3, "dangling")
	require.Len(t, fields, 2)
	assert.Equal(t, "draft_id", fields[0].Key)
	assert.Equal(t, "count", fields[1].Key)
}
