// Package transfer moves video payloads between local files and the
// catalog.
//
// Each Run call is one invocation of a small state machine:
//
//	started -> in_progress (zero or more times) -> succeeded | failed
//
// Every invocation reaches exactly one terminal state, even when the body
// panics, and publishes exactly one completion signal after it. Calls on
// the same Worker run one at a time; callers needing independent queues use
// separate workers.
package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/jgesser/mobilecloud-15/internal/catalog"
	"github.com/jgesser/mobilecloud-15/internal/database/transfers"
	"github.com/jgesser/mobilecloud-15/internal/entities"
)

var (
	// ErrTransferFailure matches every error returned by RunUpload and
	// RunDownload.
	ErrTransferFailure = errors.New("transfer failed")

	// ErrInterrupted means the transfer ID was already started by an earlier
	// run that never finished. The job is not executed a second time.
	ErrInterrupted = errors.New("transfer interrupted")
)

// Error describes a failed transfer.
type Error struct {
	TransferID string
	Kind       entities.TransferKind
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Kind, e.TransferID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrTransferFailure }

// Recorder persists transfer status. *transfers.Repository implements it.
type Recorder interface {
	Begin(id string, kind entities.TransferKind, videoID int64, status string) (*entities.Transfer, error)
	UpdateProgress(id string, videoID int64, bytes int64, status string) error
	Complete(id string, videoID, bytes int64, succeeded bool, status, errorMsg string) error
}

type UploadRequest struct {
	// TransferID is the idempotency key. A random one is generated if empty.
	TransferID string
	// VideoID of an existing catalog entry. Zero registers a new entry
	// first, using Title, ContentType and Duration.
	VideoID     int64
	Path        string
	Title       string
	ContentType string
	Duration    int64
}

type DownloadRequest struct {
	TransferID string
	VideoID    int64
	// ContentType, when known, picks the file extension.
	ContentType string
}

type Result struct {
	TransferID string
	VideoID    int64
	Bytes      int64
	// Path of the downloaded file. Empty for uploads.
	Path string
}

type Worker struct {
	remote   catalog.Client
	recorder Recorder
	notifier Notifier
	events   *Broadcaster
	dir      string

	mu sync.Mutex
}

type Option func(*Worker)

func WithRecorder(r Recorder) Option {
	return func(w *Worker) { w.recorder = r }
}

func WithNotifier(n Notifier) Option {
	return func(w *Worker) { w.notifier = n }
}

func WithEvents(b *Broadcaster) Option {
	return func(w *Worker) { w.events = b }
}

// WithDownloadDir sets where RunDownload writes files.
func WithDownloadDir(dir string) Option {
	return func(w *Worker) { w.dir = dir }
}

func NewWorker(remote catalog.Client, opts ...Option) *Worker {
	w := &Worker{
		remote:   remote,
		notifier: LogNotifier{},
		dir:      ".",
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// RunUpload sends the file at req.Path to the catalog.
func (w *Worker) RunUpload(ctx context.Context, req UploadRequest) (Result, error) {
	return w.run(ctx, req.TransferID, entities.TransferKindUpload, req.VideoID, func(ctx context.Context, t *tracker) error {
		f, err := os.Open(req.Path)
		if err != nil {
			return errors.Wrap(err, "open upload source")
		}
		defer f.Close()

		videoID := req.VideoID
		if videoID == 0 {
			video, err := w.register(ctx, req)
			if err != nil {
				return err
			}
			videoID = video.ID
			t.setVideo(videoID)
		}

		body := newCountingReader(f, t.progress)
		status, err := w.remote.UploadBytes(ctx, videoID, body)
		if err != nil {
			return err
		}
		if status.State != catalog.VideoStateReady {
			return errors.Errorf("catalog reported state %q", status.State)
		}
		t.setBytes(body.Count())
		return nil
	})
}

func (w *Worker) register(ctx context.Context, req UploadRequest) (catalog.Video, error) {
	contentType := req.ContentType
	if contentType == "" {
		mtype, err := mimetype.DetectFile(req.Path)
		if err != nil {
			return catalog.Video{}, errors.Wrap(err, "detect content type")
		}
		contentType = mtype.String()
	}
	title := req.Title
	if title == "" {
		title = filepath.Base(req.Path)
	}

	video, err := w.remote.AddVideo(ctx, catalog.Video{
		Title:       title,
		Duration:    req.Duration,
		ContentType: contentType,
	})
	if err != nil {
		return catalog.Video{}, err
	}
	log.WithFields(log.Fields{"video": video.ID, "title": title}).Info("Registered video for upload")
	return video, nil
}

// RunDownload stores the payload of req.VideoID as <dir>/<id><ext>. The file
// appears only once it is complete.
func (w *Worker) RunDownload(ctx context.Context, req DownloadRequest) (Result, error) {
	return w.run(ctx, req.TransferID, entities.TransferKindDownload, req.VideoID, func(ctx context.Context, t *tracker) error {
		if err := os.MkdirAll(w.dir, 0755); err != nil {
			return errors.Wrap(err, "create download dir")
		}

		rc, err := w.remote.DownloadBytes(ctx, req.VideoID)
		if err != nil {
			return err
		}
		defer rc.Close()

		tmpFile, err := os.CreateTemp(w.dir, "download_tmp_")
		if err != nil {
			return errors.Wrap(err, "create temp file")
		}
		tmpPath := tmpFile.Name()
		defer func() {
			tmpFile.Close()
			os.Remove(tmpPath)
		}()

		body := newCountingReader(rc, t.progress)
		if _, err := io.Copy(tmpFile, body); err != nil {
			return errors.Wrap(err, "copy payload")
		}
		if err := tmpFile.Close(); err != nil {
			return errors.Wrap(err, "close temp file")
		}
		t.setBytes(body.Count())

		path := filepath.Join(w.dir, fmt.Sprintf("%d%s", req.VideoID, extension(req.ContentType, tmpPath)))
		if err := os.Rename(tmpPath, path); err != nil {
			return errors.Wrap(err, "move download into place")
		}
		t.setPath(path)
		return nil
	})
}

// extension prefers the declared content type and falls back to sniffing
// the downloaded bytes.
func extension(contentType, path string) string {
	if contentType != "" {
		if mtype := mimetype.Lookup(contentType); mtype != nil && mtype.Extension() != "" {
			return mtype.Extension()
		}
	}
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return ""
	}
	return mtype.Extension()
}

func (w *Worker) run(ctx context.Context, id string, kind entities.TransferKind, videoID int64, body func(context.Context, *tracker) error) (res Result, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}
	t := &tracker{w: w, id: id, kind: kind, videoID: videoID}

	if w.recorder != nil {
		rec, berr := w.recorder.Begin(id, kind, videoID, startedMessage(kind))
		switch {
		case errors.Is(berr, transfers.ErrAlreadyStarted):
			body = replayed(rec)
		case berr != nil:
			log.WithError(berr).WithField("transfer", id).Warn("Failed to record transfer start")
		}
	}
	t.update(entities.TransferStateStarted, startedMessage(kind), nil)

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
		t.finish(err)
		res = t.result()
		if err != nil {
			err = &Error{TransferID: id, Kind: kind, Err: err}
		}
	}()

	return Result{}, body(ctx, t)
}

// replayed stands in for the body of a job whose ID was seen before. A job
// that never finished is reported as interrupted rather than run again.
func replayed(rec *entities.Transfer) func(context.Context, *tracker) error {
	return func(_ context.Context, t *tracker) error {
		t.setVideo(rec.VideoID)
		t.setBytes(rec.Bytes)
		log.WithFields(log.Fields{
			"transfer": rec.ID,
			"state":    rec.State,
		}).Warn("Transfer redelivered, not executing again")

		switch rec.State {
		case entities.TransferStateSucceeded:
			return nil
		case entities.TransferStateFailed:
			if rec.Error == "" {
				return errors.New("previous run failed")
			}
			return errors.New(rec.Error)
		default:
			return ErrInterrupted
		}
	}
}

// tracker carries one invocation's state. Progress may be reported from a
// goroutine other than the one running the body.
type tracker struct {
	w    *Worker
	id   string
	kind entities.TransferKind

	// seq orders progress against finish so nothing is reported after
	// the terminal state.
	seq  sync.Mutex
	done bool

	mu      sync.Mutex
	videoID int64
	bytes   int64
	path    string
}

func (t *tracker) setVideo(id int64) {
	t.mu.Lock()
	t.videoID = id
	t.mu.Unlock()
}

func (t *tracker) setBytes(n int64) {
	t.mu.Lock()
	t.bytes = n
	t.mu.Unlock()
}

func (t *tracker) setPath(p string) {
	t.mu.Lock()
	t.path = p
	t.mu.Unlock()
}

func (t *tracker) progress(n int64) {
	t.seq.Lock()
	defer t.seq.Unlock()
	if t.done {
		return
	}

	t.mu.Lock()
	t.bytes = n
	videoID := t.videoID
	t.mu.Unlock()

	msg := progressMessage(t.kind, n)
	if t.w.recorder != nil {
		if err := t.w.recorder.UpdateProgress(t.id, videoID, n, msg); err != nil {
			log.WithError(err).WithField("transfer", t.id).Warn("Failed to record transfer progress")
		}
	}
	t.update(entities.TransferStateInProgress, msg, nil)
}

func (t *tracker) update(state entities.TransferState, msg string, err error) {
	t.mu.Lock()
	u := Update{
		TransferID: t.id,
		Kind:       t.kind,
		VideoID:    t.videoID,
		State:      state,
		Message:    msg,
		Bytes:      t.bytes,
		Err:        err,
	}
	t.mu.Unlock()

	if t.w.notifier != nil {
		t.w.notifier.Notify(u)
	}
}

func (t *tracker) finish(err error) {
	t.seq.Lock()
	defer t.seq.Unlock()
	t.done = true

	succeeded := err == nil
	state := entities.TransferStateSucceeded
	errMsg := ""
	if !succeeded {
		state = entities.TransferStateFailed
		errMsg = err.Error()
	}
	msg := finishedMessage(t.kind, succeeded)

	t.mu.Lock()
	videoID, bytes := t.videoID, t.bytes
	t.mu.Unlock()

	if t.w.recorder != nil {
		if rerr := t.w.recorder.Complete(t.id, videoID, bytes, succeeded, msg, errMsg); rerr != nil {
			log.WithError(rerr).WithField("transfer", t.id).Warn("Failed to record transfer completion")
		}
	}
	t.update(state, msg, err)

	if t.w.events != nil {
		t.w.events.Publish()
	}
}

func (t *tracker) result() Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Result{
		TransferID: t.id,
		VideoID:    t.videoID,
		Bytes:      t.bytes,
		Path:       t.path,
	}
}
