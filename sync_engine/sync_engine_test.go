package sync_engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
	"github.com/meysamhadeli/imgsync/image_scanner"
	provider_models "github.com/meysamhadeli/imgsync/providers/models"
	"github.com/meysamhadeli/imgsync/state_management"
	state_models "github.com/meysamhadeli/imgsync/state_management/models"
	"github.com/meysamhadeli/imgsync/sync_engine/models"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type documentCall struct {
	title   string
	imageID string
}

// fakeProvider records calls and fails on demand.
type fakeProvider struct {
	uploads   []string
	documents []documentCall
	failOn    string
}

func (p *fakeProvider) Name() string {
	return "fake"
}

func (p *fakeProvider) UploadImage(ctx context.Context, imagePath string) (string, error) {
	if p.failOn != "" && imagePath == p.failOn {
		return "", &provider_models.StatusError{Op: "image upload", StatusCode: 500}
	}
	p.uploads = append(p.uploads, imagePath)
	return fmt.Sprintf("image-%d", len(p.uploads)), nil
}

func (p *fakeProvider) CreateDocument(ctx context.Context, title string, imageID string) (*provider_models.MutationResult, error) {
	p.documents = append(p.documents, documentCall{title: title, imageID: imageID})
	return &provider_models.MutationResult{TransactionID: "tx"}, nil
}

type testEnv struct {
	fs       afero.Fs
	provider *fakeProvider
	engine   *SyncEngine
	out      *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/images", 0755))

	scanner, err := image_scanner.NewImageScanner(fs, image_scanner.HashMD5, false, "")
	require.NoError(t, err)

	provider := &fakeProvider{}
	out := &bytes.Buffer{}
	engine := NewSyncEngine(provider, scanner, state_management.NewStateManager(fs, "/state.json"), "/images", out).(*SyncEngine)

	return &testEnv{fs: fs, provider: provider, engine: engine, out: out}
}

func (env *testEnv) writeImage(t *testing.T, name string, content string) {
	require.NoError(t, afero.WriteFile(env.fs, "/images/"+name, []byte(content), 0644))
}

func (env *testEnv) manifest(t *testing.T) state_models.Manifest {
	manifest, err := state_management.NewStateManager(env.fs, "/state.json").Load()
	require.NoError(t, err)
	return manifest
}

func TestTitleFromFileName(t *testing.T) {
	tests := map[string]string{
		"my_cat_photo.JPG":  "my cat photo",
		"sunset.png":        "sunset",
		"archive.v2_x.jpeg": "archive.v2 x",
		".png":              ".png",
		"no_ext":            "no ext",
	}

	for input, expected := range tests {
		assert.Equal(t, expected, TitleFromFileName(input), input)
	}
}

func TestRun_NewImagesUploadedOnce(t *testing.T) {
	env := newTestEnv(t)
	env.writeImage(t, "b_dog.png", "dog")
	env.writeImage(t, "a_cat.jpg", "cat")
	env.writeImage(t, "notes.txt", "ignored")

	report, err := env.engine.Run(context.Background(), models.SyncOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"/images/a_cat.jpg", "/images/b_dog.png"}, env.provider.uploads)
	assert.Equal(t, []documentCall{
		{title: "a cat", imageID: "image-1"},
		{title: "b dog", imageID: "image-2"},
	}, env.provider.documents)

	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 0, report.Unchanged)
	assert.Len(t, report.Synced, 2)

	assert.Equal(t, state_models.Manifest{
		"a_cat.jpg": "d077f244def8a70e5ea758bd8352fcd8",
		"b_dog.png": "06d80eb0c50b49a509b49f2424e8c805",
	}, env.manifest(t))

	assert.Contains(t, env.out.String(), "New or updated image found: a_cat.jpg")
	assert.Contains(t, env.out.String(), "Created new document for b_dog.png")
	assert.Contains(t, env.out.String(), "Sync completed.")
}

func TestRun_UnchangedImageNotUploaded(t *testing.T) {
	env := newTestEnv(t)
	env.writeImage(t, "cat.png", "cat")

	_, err := env.engine.Run(context.Background(), models.SyncOptions{})
	require.NoError(t, err)
	require.Len(t, env.provider.uploads, 1)

	report, err := env.engine.Run(context.Background(), models.SyncOptions{})
	require.NoError(t, err)

	assert.Len(t, env.provider.uploads, 1)
	assert.Len(t, env.provider.documents, 1)
	assert.Equal(t, 1, report.Unchanged)
	assert.Empty(t, report.Synced)
}

func TestRun_ChangedImageUploadedAgain(t *testing.T) {
	env := newTestEnv(t)
	env.writeImage(t, "cat.png", "cat")

	_, err := env.engine.Run(context.Background(), models.SyncOptions{})
	require.NoError(t, err)
	before := env.manifest(t)["cat.png"]

	env.writeImage(t, "cat.png", "a different cat")
	report, err := env.engine.Run(context.Background(), models.SyncOptions{})
	require.NoError(t, err)

	assert.Len(t, env.provider.uploads, 2)
	assert.Len(t, env.provider.documents, 2)
	require.Len(t, report.Synced, 1)
	assert.Equal(t, "cat.png", report.Synced[0].Name)
	assert.NotEqual(t, before, env.manifest(t)["cat.png"])
}

func TestRun_RemovedImageDroppedFromManifest(t *testing.T) {
	env := newTestEnv(t)
	env.writeImage(t, "cat.png", "cat")
	env.writeImage(t, "dog.png", "dog")

	_, err := env.engine.Run(context.Background(), models.SyncOptions{})
	require.NoError(t, err)

	require.NoError(t, env.fs.Remove("/images/dog.png"))
	report, err := env.engine.Run(context.Background(), models.SyncOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"dog.png"}, report.Removed)
	assert.NotContains(t, env.manifest(t), "dog.png")
	assert.Contains(t, env.manifest(t), "cat.png")
}

func TestRun_FailureAbortsWithoutSavingManifest(t *testing.T) {
	env := newTestEnv(t)
	env.writeImage(t, "a.png", "a")
	env.writeImage(t, "b.png", "b")
	env.writeImage(t, "c.png", "c")
	env.provider.failOn = "/images/b.png"

	report, err := env.engine.Run(context.Background(), models.SyncOptions{})
	require.Error(t, err)
	assert.Nil(t, report)

	var statusErr *provider_models.StatusError
	assert.ErrorAs(t, err, &statusErr)
	assert.Contains(t, err.Error(), "failed to upload b.png")

	// a.png went through, c.png was never reached.
	assert.Equal(t, []string{"/images/a.png"}, env.provider.uploads)

	exists, err := afero.Exists(env.fs, "/state.json")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRun_DryRun(t *testing.T) {
	env := newTestEnv(t)
	env.writeImage(t, "cat_photo.png", "cat")

	report, err := env.engine.Run(context.Background(), models.SyncOptions{DryRun: true})
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	require.Len(t, report.Synced, 1)
	assert.Equal(t, "cat photo", report.Synced[0].Title)
	assert.Empty(t, report.Synced[0].AssetID)
	assert.Empty(t, env.provider.uploads)

	exists, err := afero.Exists(env.fs, "/state.json")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRun_CanceledContext(t *testing.T) {
	env := newTestEnv(t)
	env.writeImage(t, "cat.png", "cat")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.engine.Run(ctx, models.SyncOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, env.provider.uploads)
}

func TestFormatReport(t *testing.T) {
	report := &models.SyncReport{
		Scanned:   3,
		Unchanged: 1,
		Synced:    []models.SyncedImage{{Name: "my_cat.png", Title: "my cat"}},
		Removed:   []string{"old.gif"},
		Duration:  1500 * time.Millisecond,
	}

	text := FormatReport(report)
	assert.Contains(t, text, "Scanned: 3")
	assert.Contains(t, text, "Unchanged: 1")
	assert.Contains(t, text, "Synced: 1")
	assert.Contains(t, text, `+ my_cat.png -> "my cat"`)
	assert.Contains(t, text, "- old.gif")
	assert.Contains(t, text, "Duration: 1.5s")

	report.DryRun = true
	assert.Contains(t, FormatReport(report), "Would sync: 1")
}

func TestIsRelevantEvent(t *testing.T) {
	assert.True(t, isRelevantEvent(fsnotify.Event{Name: "/images/cat.PNG", Op: fsnotify.Write}))
	assert.True(t, isRelevantEvent(fsnotify.Event{Name: "/images/.imgsync-ignore", Op: fsnotify.Write}))
	assert.False(t, isRelevantEvent(fsnotify.Event{Name: "/images/state.json", Op: fsnotify.Write}))
	assert.False(t, isRelevantEvent(fsnotify.Event{Name: "/images/state.json.tmp", Op: fsnotify.Create}))
}

func TestCombineUpdates(t *testing.T) {
	events := make(chan fsnotify.Event, 3)
	events <- fsnotify.Event{Name: "/images/state.json", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "/images/state.json.tmp", Op: fsnotify.Create}
	events <- fsnotify.Event{Name: "/images/a.png", Op: fsnotify.Write}
	close(events)

	count := 0
	for range combineUpdates(events) {
		count++
	}
	assert.Equal(t, 1, count)
}

func TestDebounce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	updates := make(chan struct{}, 1)
	runs := make(chan struct{}, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		debounce(ctx, clock, time.Second, updates, func() { runs <- struct{}{} })
		close(done)
	}()

	updates <- struct{}{}
	clock.BlockUntil(1)

	clock.Advance(500 * time.Millisecond)
	select {
	case <-runs:
		t.Fatal("run fired before the debounce delay")
	default:
	}

	clock.Advance(500 * time.Millisecond)
	select {
	case <-runs:
	case <-time.After(time.Second):
		t.Fatal("run did not fire after the debounce delay")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounce did not stop on cancel")
	}
}

// newWatchEnv builds an engine over a real temp folder, since fsnotify needs
// the OS filesystem.
func newWatchEnv(t *testing.T) (*SyncEngine, *fakeProvider, string) {
	dir := t.TempDir()
	images := filepath.Join(dir, "images")
	require.NoError(t, os.MkdirAll(images, 0755))

	fs := afero.NewOsFs()
	scanner, err := image_scanner.NewImageScanner(fs, image_scanner.HashMD5, false, "")
	require.NoError(t, err)

	provider := &fakeProvider{}
	engine := NewSyncEngine(provider, scanner, state_management.NewStateManager(fs, filepath.Join(dir, "state.json")), images, &bytes.Buffer{}).(*SyncEngine)
	engine.debounceDelay = 20 * time.Millisecond

	return engine, provider, images
}

func TestWatch_SyncsAgainWhenAnImageIsAdded(t *testing.T) {
	engine, provider, images := newWatchEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(images, "cat.png"), []byte("cat"), 0644))

	runs := make(chan *models.SyncReport, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- engine.Watch(ctx, models.SyncOptions{}, func(report *models.SyncReport, err error) {
			assert.NoError(t, err)
			select {
			case runs <- report:
			default:
			}
		})
	}()

	select {
	case report := <-runs:
		require.NotNil(t, report)
		require.Len(t, report.Synced, 1)
		assert.Equal(t, "cat.png", report.Synced[0].Name)
	case <-time.After(5 * time.Second):
		t.Fatal("initial run did not happen")
	}

	require.NoError(t, os.WriteFile(filepath.Join(images, "dog.png"), []byte("dog"), 0644))

	deadline := time.After(5 * time.Second)
	for synced := false; !synced; {
		select {
		case report := <-runs:
			require.NotNil(t, report)
			for _, image := range report.Synced {
				synced = synced || image.Name == "dog.png"
			}
		case <-deadline:
			t.Fatal("adding an image did not trigger a run")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop on cancel")
	}

	require.GreaterOrEqual(t, len(provider.uploads), 2)
	assert.Equal(t, filepath.Join(images, "cat.png"), provider.uploads[0])
	assert.Contains(t, provider.uploads, filepath.Join(images, "dog.png"))
}

func TestWatch_FailedRunIsReported(t *testing.T) {
	engine, provider, images := newWatchEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(images, "cat.png"), []byte("cat"), 0644))
	provider.failOn = filepath.Join(images, "cat.png")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reported error
	err := engine.Watch(ctx, models.SyncOptions{}, func(report *models.SyncReport, err error) {
		reported = err
		cancel()
	})
	require.NoError(t, err)

	var statusErr *provider_models.StatusError
	assert.ErrorAs(t, reported, &statusErr)
}

func TestWatch_RunCutShortByShutdownIsNotReported(t *testing.T) {
	engine, provider, images := newWatchEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(images, "cat.png"), []byte("cat"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := engine.Watch(ctx, models.SyncOptions{}, func(report *models.SyncReport, err error) {
		called = true
	})
	require.NoError(t, err)

	assert.False(t, called)
	assert.Empty(t, provider.uploads)
}
