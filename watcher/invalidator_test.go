package watcher

import (
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docs-ui/uipreview/config"
	"github.com/docs-ui/uipreview/site"
	"github.com/docs-ui/uipreview/templatex"
)

type counters struct {
	invalidations atomic.Int32
	broadcasts    atomic.Int32
}

func newCountingInvalidator() (*Invalidator, *counters) {
	c := &counters{}
	inv := NewInvalidator(Config{
		Invalidate: func() { c.invalidations.Add(1) },
		Broadcast:  func() { c.broadcasts.Add(1) },
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return inv, c
}

func TestReadyIgnoresAddButHonorsChangeAndUnlink(t *testing.T) {
	inv, c := newCountingInvalidator()
	require.Equal(t, StateReady, inv.State())

	require.False(t, inv.Handle(Event{Op: OpAdd, Path: "src/layouts/default.hbs"}))
	require.Equal(t, int32(0), c.invalidations.Load())

	require.True(t, inv.Handle(Event{Op: OpChange, Path: "src/layouts/default.hbs"}))
	require.True(t, inv.Handle(Event{Op: OpUnlink, Path: "src/partials/head.hbs"}))
	require.Equal(t, int32(2), c.invalidations.Load())
	require.Equal(t, int32(2), c.broadcasts.Load())
	require.Equal(t, StateReady, inv.State())
}

func TestArmedHonorsEveryOp(t *testing.T) {
	inv, c := newCountingInvalidator()
	inv.ScanComplete()
	inv.ScanComplete()
	require.Equal(t, StateArmed, inv.State())

	for _, op := range []Op{OpAdd, OpChange, OpUnlink} {
		require.True(t, inv.Handle(Event{Op: op, Path: "preview-src/ui-model.yml"}), op.String())
	}
	require.Equal(t, int32(3), c.invalidations.Load())
	require.Equal(t, int32(3), c.broadcasts.Load())
}

func TestOpAndStateStrings(t *testing.T) {
	require.Equal(t, "add", OpAdd.String())
	require.Equal(t, "change", OpChange.String())
	require.Equal(t, "unlink", OpUnlink.String())
	require.Equal(t, "unknown", Op(42).String())
	require.Equal(t, "ready", StateReady.String())
	require.Equal(t, "armed", StateArmed.String())
}

func TestAddBeforeArmedKeepsRenderCaches(t *testing.T) {
	cfg := config.Default()
	cfg.SiteModel = t.TempDir() + "/ui-model.yml"
	svc := site.NewService(cfg,
		site.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		site.WithTemplates(templatex.Options{
			Layouts: []templatex.Provider{templatex.Inline{templatex.Text("default", "{{page.title}}")}},
		}),
	)
	var reloads atomic.Int32
	inv := NewInvalidator(Config{
		Invalidate: svc.Invalidate,
		Broadcast:  func() { reloads.Add(1) },
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	_, err := svc.Render([]byte("= Doc\n"), "doc.adoc")
	require.NoError(t, err)
	require.True(t, svc.Templates().Initialized())

	inv.Handle(Event{Op: OpAdd, Path: "src/layouts/default.hbs"})
	require.True(t, svc.Templates().Initialized())
	require.Equal(t, int32(0), reloads.Load())

	inv.ScanComplete()
	inv.Handle(Event{Op: OpAdd, Path: "src/layouts/default.hbs"})
	require.False(t, svc.Templates().Initialized())
	require.Equal(t, int32(1), reloads.Load())
}
