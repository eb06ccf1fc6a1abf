package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLoader struct {
	loads map[string][][]byte
}

func newRecordingLoader() *recordingLoader {
	return &recordingLoader{loads: make(map[string][][]byte)}
}

func (l *recordingLoader) LoadOrReplace(addr string, code []byte) error {
	l.loads[addr] = append(l.loads[addr], code)
	return nil
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestDiscoverArtifacts(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "token.wasm")
	writeFile(t, main, []byte("m"))
	writeFile(t, filepath.Join(dir, ContractFolder, "oracle", "oracle.wasm"), []byte("o"))
	// 不符合 <name>/<name>.wasm 约定的条目被忽略
	writeFile(t, filepath.Join(dir, ContractFolder, "broken", "other.wasm"), []byte("x"))

	targets, err := DiscoverArtifacts(main)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "token", targets[0].Address)
	assert.Equal(t, "oracle", targets[1].Address)
}

func TestDiscoverArtifactsValidation(t *testing.T) {
	_, err := DiscoverArtifacts("/no/such/file.txt")
	assert.Error(t, err, "非wasm扩展名")

	_, err = DiscoverArtifacts(filepath.Join(t.TempDir(), "missing.wasm"))
	assert.Error(t, err, "文件不存在")
}

func TestLoadAllAndPoll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.wasm")
	writeFile(t, path, []byte("v1"))

	loader := newRecordingLoader()
	w := New(loader, []Target{{Path: path, Address: "token"}}, DefaultInterval, nil)
	require.NoError(t, w.LoadAll())
	require.Len(t, loader.loads["token"], 1)
	assert.Equal(t, []byte("v1"), loader.loads["token"][0])

	// 修改时间未变则不重载
	w.poll()
	assert.Len(t, loader.loads["token"], 1)

	// 内容与修改时间变化后重载
	writeFile(t, path, []byte("v2"))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))
	w.poll()
	require.Len(t, loader.loads["token"], 2)
	assert.Equal(t, []byte("v2"), loader.loads["token"][1])
}
