package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Rana718/sqlir/internal/config"
	"github.com/Rana718/sqlir/internal/types"
	"github.com/Rana718/sqlir/internal/utils"
)

// Host runs a generator over a catalog and a set of queries and writes the
// files it returns.
type Host struct {
	loader  *Loader
	engine  Engine
	builtin Module
	printer *utils.Printer
}

func NewHost(loader *Loader, engine Engine, builtin Module, printer *utils.Printer) *Host {
	return &Host{loader: loader, engine: engine, builtin: builtin, printer: printer}
}

// Generate returns the paths written below outDir. A checksum failure is
// reported before the generator is compiled, and a bad output path before
// anything is written. A generator that fails to close fails the call, but
// files already written are still reported.
func (h *Host) Generate(ctx context.Context, codegen config.Codegen, outDir string, catalog *types.Catalog, queries []types.Query) (written []string, err error) {
	module, err := h.module(ctx, codegen.Plugin)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := module.Close(ctx); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close generator: %w", cerr))
		}
	}()

	if queries == nil {
		queries = []types.Query{}
	}
	payload, err := json.Marshal(types.Request{Catalog: *catalog, Queries: queries, Config: codegen})
	if err != nil {
		return nil, fmt.Errorf("failed to encode generator request: %w", err)
	}

	resp, err := module.Invoke(ctx, payload)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, &GeneratorError{Message: *resp.Error}
	}

	w := &Writer{Root: outDir}
	return w.Write(ctx, resp.Files)
}

func (h *Host) module(ctx context.Context, plugin config.Plugin) (Module, error) {
	artifact, err := h.loader.Load(ctx, plugin)
	if err != nil {
		return nil, err
	}
	if artifact.Origin == OriginBuiltin {
		return h.builtin, nil
	}

	h.printer.Info("Using generator %s (%s)", artifact.Source, artifact.Origin)
	return h.engine.Load(ctx, artifact.Wasm)
}
