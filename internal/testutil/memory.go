package testutil

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/checksum"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

const memoryScheme = "mem://"

// FetchCall records one FetchRange invocation against a MemoryRemote.
type FetchCall struct {
	URL     string
	Range   string
	HasAuth bool
}

// MemoryRemote is an in-memory transfertypes.Remote. Files are stored as
// ordered parts with md5 checksums, and ranged fetches are served from the
// concatenated content.
type MemoryRemote struct {
	// OnFetch, when set, may replace the bytes returned for a fetch
	OnFetch func(call FetchCall, data []byte) ([]byte, error)

	mu              sync.Mutex
	files           map[string]*memoryFile
	next            int
	fetches         []FetchCall
	descriptorCalls int
	appendCalls     []int
}

type memoryFile struct {
	name      string
	mediaType string
	state     transfertypes.ObjectState
	parts     map[int][]byte
}

var _ transfertypes.Remote = (*MemoryRemote)(nil)

// NewMemoryRemote creates an empty MemoryRemote.
func NewMemoryRemote() *MemoryRemote {
	return &MemoryRemote{files: make(map[string]*memoryFile)}
}

// Put stores a closed file made of parts and returns its id.
func (m *MemoryRemote) Put(name string, parts ...[]byte) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.newID()
	f := &memoryFile{name: name, state: transfertypes.StateClosed, parts: make(map[int][]byte)}
	for i, p := range parts {
		f.parts[i+1] = bytes.Clone(p)
	}
	m.files[id] = f
	return id
}

// Content returns the concatenated bytes of a file.
func (m *MemoryRemote) Content(fileID string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[fileID]
	if !ok {
		return nil
	}
	return f.content()
}

// PartSizes returns the part sizes of a file in part order.
func (m *MemoryRemote) PartSizes(fileID string) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[fileID]
	if !ok {
		return nil
	}
	var sizes []int
	for _, idx := range f.indexes() {
		sizes = append(sizes, len(f.parts[idx]))
	}
	return sizes
}

// State returns the lifecycle state of a file.
func (m *MemoryRemote) State(fileID string) transfertypes.ObjectState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.files[fileID]; ok {
		return f.state
	}
	return transfertypes.StateOpen
}

// Fetches returns a copy of the recorded fetch calls.
func (m *MemoryRemote) Fetches() []FetchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FetchCall(nil), m.fetches...)
}

// DescriptorCalls returns how many fetch descriptors were issued.
func (m *MemoryRemote) DescriptorCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.descriptorCalls
}

// AppendCalls returns the part indexes appended, in call order.
func (m *MemoryRemote) AppendCalls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.appendCalls...)
}

// GetManifest returns the part layout of a file.
func (m *MemoryRemote) GetManifest(_ context.Context, fileID string) (*transfertypes.ManifestInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[fileID]
	if !ok {
		return nil, errors.NewFileError("getManifest", fileID, errors.ErrFileNotFound)
	}

	info := &transfertypes.ManifestInfo{
		Parts: make(map[string]transfertypes.PartInfo, len(f.parts)),
		State: f.state,
	}
	for idx, data := range f.parts {
		sum, _ := checksum.Sum(checksum.Default, data)
		info.Parts[strconv.Itoa(idx)] = transfertypes.PartInfo{Size: int64(len(data)), Checksum: sum}
		info.Size += int64(len(data))
	}
	return info, nil
}

// GetFetchDescriptor returns a mem:// URL for the file.
func (m *MemoryRemote) GetFetchDescriptor(_ context.Context, fileID string) (*transfertypes.FetchDescriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[fileID]; !ok {
		return nil, errors.NewFileError("getFetchDescriptor", fileID, errors.ErrFileNotFound)
	}
	m.descriptorCalls++
	return &transfertypes.FetchDescriptor{
		URL:     memoryScheme + fileID,
		Headers: http.Header{"Authorization": []string{"Bearer memory"}},
	}, nil
}

// FetchRange serves bytes for a mem:// URL honoring the Range header.
func (m *MemoryRemote) FetchRange(ctx context.Context, url string, headers http.Header) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	call := FetchCall{URL: url, Range: headers.Get("Range"), HasAuth: headers.Get("Authorization") != ""}
	m.fetches = append(m.fetches, call)
	f, ok := m.files[strings.TrimPrefix(url, memoryScheme)]
	var content []byte
	if ok {
		content = f.content()
	}
	hook := m.OnFetch
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("memory remote: no file at %s", url)
	}

	data := content
	if call.Range != "" {
		start, end, err := parseRange(call.Range)
		if err != nil {
			return nil, err
		}
		if start >= int64(len(content)) {
			return nil, fmt.Errorf("memory remote: range %s not satisfiable", call.Range)
		}
		end = min(end, int64(len(content))-1)
		data = content[start : end+1]
	}
	data = bytes.Clone(data)

	if hook != nil {
		return hook(call, data)
	}
	return data, nil
}

// CreateFile creates an open file.
func (m *MemoryRemote) CreateFile(_ context.Context, req transfertypes.CreateFileRequest) (*transfertypes.RemoteFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.newID()
	m.files[id] = &memoryFile{
		name:      req.Name,
		mediaType: req.MediaType,
		state:     transfertypes.StateOpen,
		parts:     make(map[int][]byte),
	}
	return &transfertypes.RemoteFile{
		ID:        id,
		Name:      req.Name,
		MediaType: req.MediaType,
		State:     transfertypes.StateOpen,
	}, nil
}

// AppendPart stores a copy of data as part index. Re-sending an index replaces it.
func (m *MemoryRemote) AppendPart(_ context.Context, fileID string, index int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[fileID]
	if !ok {
		return errors.NewFileError("appendPart", fileID, errors.ErrFileNotFound)
	}
	if f.state != transfertypes.StateOpen {
		return errors.NewFileError("appendPart", fileID, errors.ErrInvalidState)
	}
	f.parts[index] = bytes.Clone(data)
	m.appendCalls = append(m.appendCalls, index)
	return nil
}

// Finalize closes the file. Closing an already closed file succeeds.
func (m *MemoryRemote) Finalize(_ context.Context, fileID string, block bool) (transfertypes.ObjectState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[fileID]
	if !ok {
		return transfertypes.StateOpen, errors.NewFileError("finalize", fileID, errors.ErrFileNotFound)
	}
	f.state = transfertypes.StateClosed
	if block {
		return transfertypes.StateClosed, nil
	}
	return transfertypes.StateClosing, nil
}

func (m *MemoryRemote) newID() string {
	m.next++
	return fmt.Sprintf("file-%04d", m.next)
}

func (f *memoryFile) indexes() []int {
	idx := make([]int, 0, len(f.parts))
	for i := range f.parts {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// content is never nil, so an empty file compares equal to []byte{}.
func (f *memoryFile) content() []byte {
	out := make([]byte, 0, f.size())
	for _, i := range f.indexes() {
		out = append(out, f.parts[i]...)
	}
	return out
}

func (f *memoryFile) size() int {
	n := 0
	for _, p := range f.parts {
		n += len(p)
	}
	return n
}

// parseRange parses "bytes=start-end".
func parseRange(header string) (int64, int64, error) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return 0, 0, fmt.Errorf("memory remote: bad range %q", header)
	}
	lo, hi, ok := strings.Cut(spec, "-")
	if !ok {
		return 0, 0, fmt.Errorf("memory remote: bad range %q", header)
	}
	start, err := strconv.ParseInt(lo, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("memory remote: bad range %q: %w", header, err)
	}
	end, err := strconv.ParseInt(hi, 10, 64)
	if err != nil || end < start {
		return 0, 0, fmt.Errorf("memory remote: bad range %q", header)
	}
	return start, end, nil
}
