package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/Rana718/sqlir/internal/types"
)

// Exports every generator module must provide.
const (
	exportMemory         = "memory"
	exportAlloc          = "alloc"
	exportBuild          = "build"
	exportResponseLength = "response_length"
)

// Module is a loaded generator.
type Module interface {
	// Invoke hands the JSON request to the generator and decodes its reply.
	Invoke(ctx context.Context, payload []byte) (*types.Response, error)
	Close(ctx context.Context) error
}

// Engine turns generator bytes into a Module.
type Engine interface {
	Load(ctx context.Context, wasm []byte) (Module, error)
}

// WasmEngine runs WebAssembly generators with wazero. WASI is available so
// generators built for wasip1 can write to stderr.
type WasmEngine struct {
	runtime wazero.Runtime
}

// NewWasmEngine creates the runtime. When cacheDir is not empty compiled
// modules are kept there between builds.
func NewWasmEngine(ctx context.Context, cacheDir string) (*WasmEngine, error) {
	cfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cacheDir != "" {
		cache, err := wazero.NewCompilationCacheWithDir(cacheDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open compilation cache: %w", err)
		}
		cfg = cfg.WithCompilationCache(cache)
	}

	r := wazero.NewRuntimeWithConfig(ctx, cfg)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		r.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}
	return &WasmEngine{runtime: r}, nil
}

func (e *WasmEngine) Load(ctx context.Context, wasm []byte) (Module, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, fmt.Errorf("failed to compile generator: %w", err)
	}

	cfg := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions("_initialize").
		WithStderr(os.Stderr)
	mod, err := e.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate generator: %w", err)
	}

	for _, name := range []string{exportAlloc, exportBuild, exportResponseLength} {
		fn := mod.ExportedFunction(name)
		if fn == nil {
			mod.Close(ctx)
			return nil, fmt.Errorf("generator does not export function %q", name)
		}
		if len(fn.Definition().ResultTypes()) != 1 {
			mod.Close(ctx)
			return nil, fmt.Errorf("generator function %q must return exactly one value", name)
		}
	}
	if mod.Memory() == nil {
		mod.Close(ctx)
		return nil, fmt.Errorf("generator does not export %q", exportMemory)
	}

	return &wasmModule{mod: mod}, nil
}

func (e *WasmEngine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

type wasmModule struct {
	mod api.Module
}

// Invoke copies payload into the module's memory, calls build, and reads back
// exactly response_length bytes from the pointer build returned.
func (m *wasmModule) Invoke(ctx context.Context, payload []byte) (*types.Response, error) {
	if uint64(len(payload)) > math.MaxUint32 {
		return nil, errors.New("request too large for a 32-bit generator")
	}

	res, err := m.mod.ExportedFunction(exportAlloc).Call(ctx, uint64(len(payload)))
	if err != nil {
		return nil, fmt.Errorf("generator alloc failed: %w", err)
	}
	reqPtr := uint32(res[0])

	mem := m.mod.Memory()
	if !mem.Write(reqPtr, payload) {
		return nil, fmt.Errorf("generator alloc returned out of range pointer %d for %d bytes", reqPtr, len(payload))
	}

	res, err = m.mod.ExportedFunction(exportBuild).Call(ctx, uint64(reqPtr), uint64(len(payload)))
	if err != nil {
		return nil, fmt.Errorf("generator build failed: %w", err)
	}
	respPtr := uint32(res[0])

	res, err = m.mod.ExportedFunction(exportResponseLength).Call(ctx)
	if err != nil {
		return nil, fmt.Errorf("generator response_length failed: %w", err)
	}
	if res[0] > math.MaxUint32 {
		return nil, fmt.Errorf("generator reported response length %d", res[0])
	}
	respLen := uint32(res[0])

	raw, ok := mem.Read(respPtr, respLen)
	if !ok {
		return nil, fmt.Errorf("generator response [%d, +%d) is outside its memory (%d bytes)", respPtr, respLen, mem.Size())
	}

	var resp types.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode generator response: %w", err)
	}
	return &resp, nil
}

func (m *wasmModule) Close(ctx context.Context) error {
	return m.mod.Close(ctx)
}
