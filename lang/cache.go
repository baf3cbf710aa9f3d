package lang

import (
	"bytes"
	"context"
	"encoding/gob"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// globalCache stores parsed documents keyed by source and option hash.
var globalCache sync.Map

// entry is a cached parse result.
type entry struct {
	once sync.Once
	doc  *Document
	err  error
}

// readAll reads r to the end through an asynchronous read-ahead buffer.
func readAll(r io.Reader) (string, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// hashOptions hashes the options that affect the shape of a parsed tree.
func hashOptions(o options) uint64 {
	var buf bytes.Buffer

	enc := gob.NewEncoder(&buf)

	_ = enc.Encode(o.strict)
	_ = enc.Encode(o.sequentialLinks)
	_ = enc.Encode(o.implicitFStrings)
	_ = enc.Encode(o.baseDir)

	return xxh3.Hash(buf.Bytes())
}

// parseCached parses src, reusing the tree of an earlier parse of the same
// source with equivalent options. Every caller receives its own copy.
// Documents that insert other files are not cached, since those files may
// change.
func parseCached(ctx context.Context, src string, o options) (*Document, error) {
	if len(o.replacements) > 0 {
		o.logger.TraceContext(ctx, "cache bypass",
			slog.Int("replacements", len(o.replacements)))

		return parse(ctx, src, "", o, map[string]bool{})
	}

	sourceHash := xxh3.HashString(src)
	optsHash := hashOptions(o)
	key := strconv.FormatUint(sourceHash^optsHash, 36)

	value, hit := globalCache.LoadOrStore(key, new(entry))
	e, _ := value.(*entry)

	o.logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(sourceHash, 16)),
		slog.String("opts_hash", strconv.FormatUint(optsHash, 16)),
		slog.Bool("cache_hit", hit))

	e.once.Do(func() {
		e.doc, e.err = parse(ctx, src, "", o, map[string]bool{})
	})

	if e.err != nil {
		globalCache.Delete(key)

		return nil, e.err
	}

	if len(e.doc.inserts) > 0 {
		globalCache.Delete(key)

		if hit {
			return parse(ctx, src, "", o, map[string]bool{})
		}

		return e.doc, nil
	}

	doc := e.doc.Clone()
	doc.opts = o

	return doc, nil
}

// ClearCache removes all cached documents.
func ClearCache() {
	globalCache.Clear()
}
