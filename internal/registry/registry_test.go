package registry

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/aether-shell/aether/internal/apps"
	"github.com/aether-shell/aether/internal/models"
	"github.com/aether-shell/aether/internal/types"
)

func newTestRegistry() *Registry {
	n := 0
	return New(
		WithViewport(func() types.Size { return types.Size{Width: 1000, Height: 800} }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("w%d", n)
		}),
	)
}

// === OpenApp ===

func TestOpenAppCreatesWindow(t *testing.T) {
	r := newTestRegistry()

	id := r.OpenApp(apps.Notepad, models.NoContext)
	if id == "" {
		t.Fatal("OpenApp returned empty id")
	}

	w, ok := r.Get(id)
	if !ok {
		t.Fatal("window not found after OpenApp")
	}
	if w.Title != "Notes" || w.Size != (types.Size{Width: 400, Height: 400}) {
		t.Errorf("window = %+v, want catalog title and size", w)
	}
	if !w.IsOpen || w.IsMinimized {
		t.Errorf("window flags open=%v minimized=%v, want open and not minimized", w.IsOpen, w.IsMinimized)
	}
	if r.ActiveID() != id {
		t.Errorf("ActiveID() = %q, want %q", r.ActiveID(), id)
	}
	if w.ZOrder != 1 {
		t.Errorf("ZOrder = %d, want 1", w.ZOrder)
	}
}

func TestOpenAppUniquePerKind(t *testing.T) {
	r := newTestRegistry()

	first := r.OpenApp(apps.Memories, models.NoContext)
	r.OpenApp(apps.Notepad, models.NoContext)
	second := r.OpenApp(apps.Memories, models.QueryContext("cats"))

	if first != second {
		t.Errorf("OpenApp returned %q then %q, want the same window", first, second)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	w, _ := r.Get(first)
	if w.Context != models.QueryContext("cats") {
		t.Errorf("Context = %+v, want replaced query context", w.Context)
	}
}

func TestOpenAppKeepsContextWhenNoneSupplied(t *testing.T) {
	r := newTestRegistry()

	id := r.OpenApp(apps.Notepad, models.NoteContext("draft"))
	other := r.OpenApp(apps.Omni, models.NoContext)
	before, _ := r.Get(id)

	if got := r.OpenApp(apps.Notepad, models.NoContext); got != id {
		t.Fatalf("OpenApp() = %q, want %q", got, id)
	}

	w, _ := r.Get(id)
	if w.Context != models.NoteContext("draft") {
		t.Errorf("Context = %+v, want draft kept", w.Context)
	}
	o, _ := r.Get(other)
	if w.ZOrder <= before.ZOrder || w.ZOrder <= o.ZOrder {
		t.Errorf("ZOrder = %d, want above %d and %d", w.ZOrder, before.ZOrder, o.ZOrder)
	}
	if r.ActiveID() != id {
		t.Errorf("ActiveID() = %q, want %q", r.ActiveID(), id)
	}
}

func TestOpenAppUnknownKind(t *testing.T) {
	r := newTestRegistry()
	notified := 0
	r.Subscribe(func() { notified++ })

	if id := r.OpenApp("terminal", models.NoContext); id != "" {
		t.Errorf("OpenApp(unknown) = %q, want empty", id)
	}
	if r.Len() != 0 || notified != 0 {
		t.Errorf("unknown kind changed state: len=%d notified=%d", r.Len(), notified)
	}
}

func TestOpenAppRestoresMinimized(t *testing.T) {
	r := newTestRegistry()
	id := r.OpenApp(apps.Flow, models.NoContext)
	r.ToggleMinimize(id)

	r.OpenApp(apps.Flow, models.NoContext)
	w, _ := r.Get(id)
	if w.IsMinimized {
		t.Error("reopening a minimized app should restore it")
	}
}

// === Close / Focus ===

func TestCloseActiveClearsActive(t *testing.T) {
	r := newTestRegistry()
	a := r.OpenApp(apps.Omni, models.NoContext)
	b := r.OpenApp(apps.Flow, models.NoContext)

	r.CloseWindow(b)
	if r.ActiveID() != "" {
		t.Errorf("ActiveID() = %q, want none after closing active", r.ActiveID())
	}
	if _, ok := r.Get(b); ok {
		t.Error("closed window still in registry")
	}

	r.FocusWindow(a)
	if r.ActiveID() != a {
		t.Errorf("ActiveID() = %q, want %q", r.ActiveID(), a)
	}
}

func TestCloseInactiveKeepsActive(t *testing.T) {
	r := newTestRegistry()
	a := r.OpenApp(apps.Omni, models.NoContext)
	b := r.OpenApp(apps.Flow, models.NoContext)

	r.CloseWindow(a)
	if r.ActiveID() != b {
		t.Errorf("ActiveID() = %q, want %q", r.ActiveID(), b)
	}
}

func TestCloseUnknownIsNoop(t *testing.T) {
	r := newTestRegistry()
	r.OpenApp(apps.Omni, models.NoContext)

	r.CloseWindow("missing")
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestFocusMakesTopmost(t *testing.T) {
	r := newTestRegistry()
	ids := []string{
		r.OpenApp(apps.Omni, models.NoContext),
		r.OpenApp(apps.Memories, models.NoContext),
		r.OpenApp(apps.Flow, models.NoContext),
	}

	for _, id := range ids {
		r.FocusWindow(id)
		w, _ := r.Get(id)
		for _, other := range r.Snapshot() {
			if other.ID != id && other.ZOrder >= w.ZOrder {
				t.Errorf("after FocusWindow(%s) window %s has z %d >= %d", id, other.ID, other.ZOrder, w.ZOrder)
			}
		}
		if r.ActiveID() != id {
			t.Errorf("ActiveID() = %q, want %q", r.ActiveID(), id)
		}
	}
}

func TestFocusRestoresMinimized(t *testing.T) {
	r := newTestRegistry()
	id := r.OpenApp(apps.Omni, models.NoContext)
	r.ToggleMinimize(id)

	r.FocusWindow(id)
	w, _ := r.Get(id)
	if w.IsMinimized {
		t.Error("FocusWindow should clear IsMinimized")
	}
}

func TestFocusUnknownIsNoop(t *testing.T) {
	r := newTestRegistry()
	id := r.OpenApp(apps.Omni, models.NoContext)
	before := r.NextZOrder()

	r.FocusWindow("missing")
	if r.ActiveID() != id || r.NextZOrder() != before {
		t.Error("FocusWindow(unknown) changed state")
	}
}

// === Z-order ===

func TestZOrderUniqueAndMonotonic(t *testing.T) {
	r := newTestRegistry()
	seen := make(map[int]bool)
	last := 0

	record := func(id string) {
		w, _ := r.Get(id)
		if seen[w.ZOrder] {
			t.Errorf("z-order %d reused", w.ZOrder)
		}
		if w.ZOrder <= last {
			t.Errorf("z-order %d not above previous %d", w.ZOrder, last)
		}
		seen[w.ZOrder] = true
		last = w.ZOrder
	}

	a := r.OpenApp(apps.Omni, models.NoContext)
	record(a)
	b := r.OpenApp(apps.Memories, models.NoContext)
	record(b)
	r.CloseWindow(b)
	c := r.OpenApp(apps.Flow, models.NoContext)
	record(c)
	r.FocusWindow(a)
	record(a)
	r.CloseWindow(a)
	r.CloseWindow(c)
	d := r.OpenApp(apps.Studio, models.NoContext)
	record(d)
}

func TestNextZOrderDoesNotAllocate(t *testing.T) {
	r := newTestRegistry()
	if got := r.NextZOrder(); got != 1 {
		t.Errorf("NextZOrder() on empty registry = %d, want 1", got)
	}
	if r.NextZOrder() != r.NextZOrder() {
		t.Error("NextZOrder() should be stable without mutations")
	}
}

// === Minimize / Commit / Context ===

func TestToggleMinimizeKeepsZAndActive(t *testing.T) {
	r := newTestRegistry()
	id := r.OpenApp(apps.Omni, models.NoContext)
	before, _ := r.Get(id)

	r.ToggleMinimize(id)
	w, _ := r.Get(id)
	if !w.IsMinimized {
		t.Fatal("ToggleMinimize should minimize")
	}
	if w.ZOrder != before.ZOrder || r.ActiveID() != id {
		t.Error("ToggleMinimize changed z-order or active window")
	}
	if len(r.Visible()) != 0 {
		t.Errorf("Visible() len = %d, want 0", len(r.Visible()))
	}

	r.ToggleMinimize(id)
	w, _ = r.Get(id)
	if w.IsMinimized {
		t.Error("second ToggleMinimize should restore")
	}
}

func TestCommitPositionNoClamp(t *testing.T) {
	r := newTestRegistry()
	id := r.OpenApp(apps.Omni, models.NoContext)

	r.CommitPosition(id, -50, 5000)
	w, _ := r.Get(id)
	if w.Position != (types.Point{X: -50, Y: 5000}) {
		t.Errorf("Position = %v, want (-50, 5000)", w.Position)
	}
}

func TestReplaceContext(t *testing.T) {
	r := newTestRegistry()
	id := r.OpenApp(apps.Memories, models.QueryContext("dogs"))

	r.ReplaceContext(id, models.SettingContext("wifi"))
	w, _ := r.Get(id)
	if w.Context != models.SettingContext("wifi") {
		t.Errorf("Context = %+v, want setting wifi", w.Context)
	}
	if w.Context.Text != "" {
		t.Error("ReplaceContext merged instead of replacing")
	}
}

// === Queries / observers ===

func TestSnapshotIsCopy(t *testing.T) {
	r := newTestRegistry()
	id := r.OpenApp(apps.Omni, models.NoContext)

	snap := r.Snapshot()
	snap[0].Position = types.Point{X: 999, Y: 999}

	w, _ := r.Get(id)
	if w.Position.X == 999 {
		t.Error("mutating snapshot changed registry state")
	}
}

func TestSnapshotInsertionOrder(t *testing.T) {
	r := newTestRegistry()
	a := r.OpenApp(apps.Omni, models.NoContext)
	b := r.OpenApp(apps.Flow, models.NoContext)
	r.FocusWindow(a)

	snap := r.Snapshot()
	if snap[0].ID != a || snap[1].ID != b {
		t.Errorf("Snapshot order = [%s %s], want [%s %s]", snap[0].ID, snap[1].ID, a, b)
	}
}

func TestSubscribeNotified(t *testing.T) {
	r := newTestRegistry()
	count := 0
	r.Subscribe(func() {
		count++
		_ = r.Len() // subscribers may query
	})

	id := r.OpenApp(apps.Omni, models.NoContext)
	r.FocusWindow(id)
	r.ToggleMinimize(id)
	r.CommitPosition(id, 1, 2)
	r.CloseWindow(id)

	if count != 5 {
		t.Errorf("notified %d times, want 5", count)
	}
}

func TestFindByApp(t *testing.T) {
	r := newTestRegistry()
	id := r.OpenApp(apps.Browser, models.NoContext)

	w, ok := r.FindByApp(apps.Browser)
	if !ok || w.ID != id {
		t.Errorf("FindByApp(browser) = %v, %v", w.ID, ok)
	}
	if _, ok := r.FindByApp(apps.Studio); ok {
		t.Error("FindByApp(studio) should be false")
	}
}

// === Placement ===

func TestCascadePlacer(t *testing.T) {
	p := NewCascadePlacer(types.Point{X: 100, Y: 100}, 40)
	viewport := types.Size{Width: 1000, Height: 800}
	size := types.Size{Width: 400, Height: 400}

	want := []types.Point{{X: 100, Y: 100}, {X: 140, Y: 140}, {X: 180, Y: 180}}
	for i, w := range want {
		if got := p.Place(size, viewport); got != w {
			t.Errorf("Place() #%d = %v, want %v", i, got, w)
		}
	}
}

func TestCascadePlacerWraps(t *testing.T) {
	p := NewCascadePlacer(types.Point{X: 100, Y: 100}, 100)
	viewport := types.Size{Width: 1000, Height: 800}
	size := types.Size{Width: 400, Height: 400}

	p.Place(size, viewport) // 100
	p.Place(size, viewport) // 200
	p.Place(size, viewport) // 300
	p.Place(size, viewport) // 400: bottom 800 still fits

	// y overflows and wraps through the 300px of free room below the origin
	if got := p.Place(size, viewport); got != (types.Point{X: 500, Y: 200}) {
		t.Errorf("Place() after overflow = %v, want (500, 200)", got)
	}
	if got := p.Place(size, viewport); got != (types.Point{X: 600, Y: 300}) {
		t.Errorf("Place() after wrap = %v, want (600, 300)", got)
	}
}

func TestCascadeSmallViewportKeepsWindowsApart(t *testing.T) {
	viewport := types.Size{Width: 800, Height: 600}
	r := New(WithViewport(func() types.Size { return viewport }))

	seen := make(map[types.Point]apps.Kind)
	for _, kind := range []apps.Kind{apps.Omni, apps.Memories, apps.Flow} {
		w, _ := r.Get(r.OpenApp(kind, models.NoContext))
		if prev, dup := seen[w.Position]; dup {
			t.Errorf("%s placed on top of %s at %v", kind, prev, w.Position)
		}
		seen[w.Position] = kind

		b := w.Bounds()
		if b.Left() < 0 || b.Top() < 0 || b.Right() > viewport.Width || b.Bottom() > viewport.Height {
			t.Errorf("%s at %v leaves the %vx%v viewport", kind, w.Position, viewport.Width, viewport.Height)
		}
	}
}

func TestCascadeAfterCloseDoesNotStack(t *testing.T) {
	r := newTestRegistry()
	a := r.OpenApp(apps.Notepad, models.NoContext)
	b := r.OpenApp(apps.Flow, models.NoContext)
	r.CloseWindow(a)
	c := r.OpenApp(apps.Omni, models.NoContext)

	wb, _ := r.Get(b)
	wc, _ := r.Get(c)
	if wb.Position == wc.Position {
		t.Errorf("new window stacked on existing one at %v", wb.Position)
	}
}

func TestCenteredPlacer(t *testing.T) {
	viewport := types.Size{Width: 1000, Height: 800}
	size := types.Size{Width: 400, Height: 400}

	exact := NewCenteredPlacer(0, nil)
	if got := exact.Place(size, viewport); got != (types.Point{X: 300, Y: 200}) {
		t.Errorf("Place() without jitter = %v, want (300, 200)", got)
	}

	jittered := NewCenteredPlacer(40, rand.New(rand.NewSource(1)))
	for i := 0; i < 50; i++ {
		got := jittered.Place(size, viewport)
		if got.X < 260 || got.X > 340 || got.Y < 160 || got.Y > 240 {
			t.Fatalf("Place() = %v outside jitter bounds", got)
		}
	}

	huge := types.Size{Width: 2000, Height: 2000}
	if got := exact.Place(huge, viewport); got.X < 0 || got.Y < 0 {
		t.Errorf("Place() oversize = %v, want clamped to viewport origin", got)
	}
}
