// Package cloudwriter buffers exports and uploads them to object storage on
// Close.
package cloudwriter

import (
	"bytes"
	"fmt"
	"sync"
)

type CloudWriter interface {
	Write(data []byte) (int, error)
	Close() error
}

type CloudWriterFactory interface {
	NewWriter(bucket, objectPath string) (CloudWriter, error)
}

// MemoryWriterFactory keeps uploaded objects in memory, keyed by
// "bucket/objectPath". Used for dry runs and tests.
type MemoryWriterFactory struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryWriterFactory() *MemoryWriterFactory {
	return &MemoryWriterFactory{objects: make(map[string][]byte)}
}

func (f *MemoryWriterFactory) NewWriter(bucket, objectPath string) (CloudWriter, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &memoryWriter{factory: f, key: bucket + "/" + objectPath}, nil
}

// Object returns the bytes stored under bucket/objectPath once the writer
// was closed.
func (f *MemoryWriterFactory) Object(bucket, objectPath string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[bucket+"/"+objectPath]
	return b, ok
}

func (f *MemoryWriterFactory) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	return keys
}

type memoryWriter struct {
	factory *MemoryWriterFactory
	key     string
	buffer  bytes.Buffer
	closed  bool
}

func (w *memoryWriter) Write(data []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("write to closed object %s", w.key)
	}
	return w.buffer.Write(data)
}

func (w *memoryWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.factory.mu.Lock()
	w.factory.objects[w.key] = append([]byte(nil), w.buffer.Bytes()...)
	w.factory.mu.Unlock()
	return nil
}
