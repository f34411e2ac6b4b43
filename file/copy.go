package file

import (
	"context"
	"io"
	"sync"

	"github.com/wippyai/gobject-runtime/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type endpointSlot func(ctx context.Context, src, dst File, flags CopyFlags, progress ProgressFunc) error

// dispatchEndpoints runs the slot picked from the source's vtable and, if
// that reports not_supported, the destination's when its type has a
// different vtable.
func dispatchEndpoints(ctx context.Context, pick func(*Iface) endpointSlot, src, dst File, flags CopyFlags, progress ProgressFunc) error {
	srcVT, dstVT := src.vtable(), dst.vtable()
	err := notSupported()
	if srcVT != nil {
		if fn := pick(srcVT); fn != nil {
			err = fn(ctx, src, dst, flags, progress)
		}
	}
	if !errors.IsKind(err, errors.KindNotSupported) || dstVT == nil || dstVT == srcVT {
		return err
	}
	if fn := pick(dstVT); fn != nil {
		return fn(ctx, src, dst, flags, progress)
	}
	return err
}

// DispatchCopy runs the Copy override of src's type, then of dst's type. It
// returns not_supported when neither has one.
func DispatchCopy(ctx context.Context, src, dst File, flags CopyFlags, progress ProgressFunc) error {
	g := &progressGate{}
	defer g.close()
	return dispatchEndpoints(ctx, func(vt *Iface) endpointSlot { return vt.Copy }, src, dst, flags, g.copy(progress))
}

// DispatchMove is DispatchCopy for Move.
func DispatchMove(ctx context.Context, src, dst File, flags CopyFlags, progress ProgressFunc) error {
	g := &progressGate{}
	defer g.close()
	return dispatchEndpoints(ctx, func(vt *Iface) endpointSlot { return vt.Move }, src, dst, flags, g.copy(progress))
}

// Copy copies the regular file src to dst. When neither type overrides
// Copy the content is streamed from src.Read into dst.Create, or dst.Replace
// with CopyOverwrite.
func Copy(ctx context.Context, src, dst File, flags CopyFlags, progress ProgressFunc) error {
	err := DispatchCopy(ctx, src, dst, flags, progress)
	if !errors.IsKind(err, errors.KindNotSupported) {
		return err
	}
	Logger().Debug("copy falling back to streams",
		zap.Stringer("src", src), zap.Stringer("dst", dst))
	g := &progressGate{}
	defer g.close()
	return copyByStream(ctx, src, dst, flags, g.copy(progress))
}

// Move moves src to dst. Without an override it copies then deletes src,
// unless flags has CopyNoFallbackForMove.
func Move(ctx context.Context, src, dst File, flags CopyFlags, progress ProgressFunc) error {
	err := DispatchMove(ctx, src, dst, flags, progress)
	if !errors.IsKind(err, errors.KindNotSupported) || flags.Has(CopyNoFallbackForMove) {
		return err
	}
	Logger().Debug("move falling back to copy and delete",
		zap.Stringer("src", src), zap.Stringer("dst", dst))
	if err := Copy(ctx, src, dst, flags, progress); err != nil {
		return err
	}
	return src.Delete(ctx)
}

func copyByStream(ctx context.Context, src, dst File, flags CopyFlags, progress ProgressFunc) (err error) {
	queryFlags := QueryInfoNone
	if flags.Has(CopyNoFollowSymlinks) {
		queryFlags = QueryInfoNoFollowSymlinks
	}
	var total int64
	info, qerr := src.QueryInfo(ctx, AttributeStandardType+","+AttributeStandardSize, queryFlags)
	switch {
	case qerr == nil && info.FileType() == TypeDirectory:
		return directoryCopyError(ctx, dst, flags)
	case qerr == nil:
		total = info.Size()
	case !errors.IsKind(qerr, errors.KindNotSupported):
		return qerr
	}

	in, err := src.Read(ctx)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, in.Close()) }()

	var out io.WriteCloser
	if flags.Has(CopyOverwrite) {
		out, err = dst.Replace(ctx, "", flags.Has(CopyBackup), CreateReplaceDestination)
	} else {
		out, err = dst.Create(ctx, CreateNone)
	}
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, out.Close()) }()

	w := &progressWriter{w: out, total: total, progress: progress}
	if _, err := io.Copy(w, &ctxReader{ctx: ctx, r: in}); err != nil {
		return err
	}
	if progress != nil && w.written == 0 {
		progress(0, total)
	}
	return nil
}

// directoryCopyError is the error for a directory source. An existing
// destination is reported before the recursion.
func directoryCopyError(ctx context.Context, dst File, flags CopyFlags) error {
	info, err := dst.QueryInfo(ctx, AttributeStandardType, QueryInfoNoFollowSymlinks)
	if err == nil {
		if !flags.Has(CopyOverwrite) {
			return errors.IO(errors.KindExists, "Target file exists")
		}
		if info.FileType() == TypeDirectory {
			return errors.IO(errors.KindWouldMerge, "Can't copy directory over directory")
		}
	}
	return errors.IO(errors.KindWouldRecurse, "Can't recursively copy directory")
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, errors.Cancelled(errors.PhaseIO, err)
	}
	return r.r.Read(p)
}

type progressWriter struct {
	w        io.Writer
	progress ProgressFunc
	written  int64
	total    int64
}

func (w *progressWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.written += int64(n)
	if w.progress != nil && n > 0 {
		w.progress(w.written, max(w.total, w.written))
	}
	return n, err
}

// progressGate drops progress calls made after the operation returned.
type progressGate struct {
	mu     sync.Mutex
	closed bool
}

func (g *progressGate) close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}

func (g *progressGate) copy(p ProgressFunc) ProgressFunc {
	if p == nil {
		return nil
	}
	return func(current, total int64) {
		g.mu.Lock()
		defer g.mu.Unlock()
		if !g.closed {
			p(current, total)
		}
	}
}

func (g *progressGate) measure(p MeasureProgressFunc) MeasureProgressFunc {
	if p == nil {
		return nil
	}
	return func(reporting bool, size, dirs, files uint64) {
		g.mu.Lock()
		defer g.mu.Unlock()
		if !g.closed {
			p(reporting, size, dirs, files)
		}
	}
}
