package mcp

import (
	"path/filepath"

	"github.com/rijuma/ctxhelpr/internal/config"
	"github.com/rijuma/ctxhelpr/internal/dispatcher"
	"github.com/rijuma/ctxhelpr/internal/errors"
	"github.com/rijuma/ctxhelpr/internal/logging"
	"github.com/rijuma/ctxhelpr/internal/storage"
)

// ConfigLoader resolves the merged config for a repo, the same way
// internal/config.Load does; it is a function seam so tests can stub
// it without touching the filesystem.
type ConfigLoader func(absRepoPath string) (config.Config, error)

// Deps bundles the collaborators tool_impls.go wires together: the
// shared per-repo DB cache, the auto-index dispatcher, and the config
// loader driving truncation defaults.
type Deps struct {
	Cache      *storage.Cache
	Dispatcher *dispatcher.Dispatcher
	Config     ConfigLoader
	Logger     *logging.Logger
}

// NewToolHandlers builds the name->handler registry tools/call
// dispatches through, one entry per spec §6 tool.
func NewToolHandlers(deps Deps) map[string]ToolHandler {
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	return map[string]ToolHandler{
		"index_repository":  deps.indexRepository,
		"get_overview":      deps.getOverview,
		"get_file_symbols":  deps.getFileSymbols,
		"get_symbol_detail": deps.getSymbolDetail,
		"search_symbols":    deps.searchSymbols,
		"get_references":    deps.getReferences,
		"get_dependencies":  deps.getDependencies,
		"index_status":      deps.indexStatus,
		"list_repos":        deps.listRepos,
		"delete_repos":      deps.deleteRepos,
	}
}

func requiredString(params map[string]interface{}, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", errors.NewInvalidParameterError(key, "missing")
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", errors.NewInvalidParameterError(key, "must be a non-empty string")
	}
	return s, nil
}

func requiredInt64(params map[string]interface{}, key string) (int64, error) {
	v, ok := params[key]
	if !ok {
		return 0, errors.NewInvalidParameterError(key, "missing")
	}
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, errors.NewInvalidParameterError(key, "must be a number")
	}
}

func optionalInt(params map[string]interface{}, key string) *int {
	v, ok := params[key]
	if !ok {
		return nil
	}
	if f, ok := v.(float64); ok {
		n := int(f)
		return &n
	}
	return nil
}

func (d Deps) resolvePath(params map[string]interface{}) (string, error) {
	raw, err := requiredString(params, "path")
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", errors.NewInvalidParameterError("path", "could not resolve absolute path")
	}
	return abs, nil
}

// ensureIndexed returns the NotIndexed notice (via the dispatcher's
// auto-index guard) if absRepoPath has no populated index yet; the
// caller should surface that error directly as the tool result.
func (d Deps) ensureIndexed(absRepoPath string) error {
	if d.Dispatcher == nil {
		return nil
	}
	return d.Dispatcher.EnsureIndexed(absRepoPath)
}

func (d Deps) loadConfig(absRepoPath string) config.Config {
	if d.Config == nil {
		return config.Default()
	}
	cfg, err := d.Config(absRepoPath)
	if err != nil {
		d.Logger.Warn("failed to load repo config, using defaults", map[string]interface{}{"path": absRepoPath, "error": err.Error()})
		return config.Default()
	}
	return cfg
}

func (d Deps) indexRepository(params map[string]interface{}) (interface{}, error) {
	absPath, err := d.resolvePath(params)
	if err != nil {
		return nil, err
	}
	if d.Dispatcher == nil {
		return nil, errors.NewInternalError("no dispatcher configured", nil)
	}
	stats, err := d.Dispatcher.IndexRepository(absPath)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (d Deps) getOverview(params map[string]interface{}) (interface{}, error) {
	absPath, err := d.resolvePath(params)
	if err != nil {
		return nil, err
	}
	if err := d.ensureIndexed(absPath); err != nil {
		return nil, err
	}
	db, err := d.Cache.Open(absPath)
	if err != nil {
		return nil, err
	}
	repoID, ok, err := db.RepoIDForPath(absPath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewNotIndexedError(absPath)
	}
	overview, err := db.GetOverview(repoID)
	if err != nil {
		return nil, err
	}
	cfg := d.loadConfig(absPath)
	truncateSymbolRows(overview.LargestSymbols, cfg)
	truncateSymbolRows(overview.EntrypointHits, cfg)
	return applyMaxTokens(overview, optionalInt(params, "max_tokens"), cfg), nil
}

func (d Deps) getFileSymbols(params map[string]interface{}) (interface{}, error) {
	absPath, err := d.resolvePath(params)
	if err != nil {
		return nil, err
	}
	relFile, err := requiredString(params, "file")
	if err != nil {
		return nil, err
	}
	if err := d.ensureIndexed(absPath); err != nil {
		return nil, err
	}
	db, err := d.Cache.Open(absPath)
	if err != nil {
		return nil, err
	}
	repoID, ok, err := db.RepoIDForPath(absPath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewNotIndexedError(absPath)
	}
	symbols, err := db.GetFileSymbols(repoID, relFile)
	if err != nil {
		return nil, err
	}
	cfg := d.loadConfig(absPath)
	truncateSymbolRows(symbols, cfg)
	return applyMaxTokens(map[string]interface{}{"symbols": symbols}, optionalInt(params, "max_tokens"), cfg), nil
}

// symbolDetailResponse is the symbol + calls + called_by + type_refs
// shape spec §6 names for get_symbol_detail.
type symbolDetailResponse struct {
	Symbol    storage.SymbolRow  `json:"symbol"`
	Calls     []storage.RefRow   `json:"calls"`
	TypeRefs  []storage.RefRow   `json:"type_refs"`
	CalledBy  []calledByEntry    `json:"called_by"`
}

type calledByEntry struct {
	FromSymbolID int64  `json:"from_symbol_id"`
	FromName     string `json:"from_name"`
	FromFile     string `json:"from_file"`
	Line         int    `json:"line"`
}

func (d Deps) getSymbolDetail(params map[string]interface{}) (interface{}, error) {
	absPath, err := d.resolvePath(params)
	if err != nil {
		return nil, err
	}
	symbolID, err := requiredInt64(params, "symbol_id")
	if err != nil {
		return nil, err
	}
	if err := d.ensureIndexed(absPath); err != nil {
		return nil, err
	}
	db, err := d.Cache.Open(absPath)
	if err != nil {
		return nil, err
	}
	symbol, err := db.GetSymbolDetail(symbolID)
	if err != nil {
		return nil, err
	}

	// Read-side failures in collecting dependencies/callers degrade
	// gracefully to an empty list so the primary symbol lookup still
	// returns (spec §7 propagation policy).
	var calls, typeRefs []storage.RefRow
	if deps, derr := db.GetDependencies(symbolID); derr == nil {
		for _, r := range deps {
			switch r.Kind {
			case "call":
				calls = append(calls, r)
			case "type_ref", "extends", "implements":
				typeRefs = append(typeRefs, r)
			}
		}
	} else {
		d.Logger.Warn("failed to collect dependencies", map[string]interface{}{"symbol_id": symbolID, "error": derr.Error()})
	}

	var calledBy []calledByEntry
	if refs, rerr := db.GetReferences(symbolID); rerr == nil {
		for _, r := range refs {
			if r.Ref.Kind != "call" {
				continue
			}
			calledBy = append(calledBy, calledByEntry{
				FromSymbolID: r.FromSymbol.ID,
				FromName:     r.FromSymbol.Name,
				FromFile:     r.FromSymbol.FileRelPath,
				Line:         r.Ref.Line,
			})
		}
	} else {
		d.Logger.Warn("failed to collect references", map[string]interface{}{"symbol_id": symbolID, "error": rerr.Error()})
	}

	cfg := d.loadConfig(absPath)
	truncateSymbolRow(&symbol, cfg)
	resp := symbolDetailResponse{Symbol: symbol, Calls: calls, TypeRefs: typeRefs, CalledBy: calledBy}
	return applyMaxTokens(resp, optionalInt(params, "max_tokens"), cfg), nil
}

func (d Deps) searchSymbols(params map[string]interface{}) (interface{}, error) {
	absPath, err := d.resolvePath(params)
	if err != nil {
		return nil, err
	}
	query, err := requiredString(params, "query")
	if err != nil {
		return nil, err
	}
	if err := d.ensureIndexed(absPath); err != nil {
		return nil, err
	}
	db, err := d.Cache.Open(absPath)
	if err != nil {
		return nil, err
	}
	repoID, ok, err := db.RepoIDForPath(absPath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewNotIndexedError(absPath)
	}
	cfg := d.loadConfig(absPath)
	hits, err := db.SearchSymbols(repoID, query, cfg.Search.MaxResults)
	if err != nil {
		return nil, err
	}
	return applyMaxTokens(map[string]interface{}{"hits": hits}, optionalInt(params, "max_tokens"), cfg), nil
}

func (d Deps) getReferences(params map[string]interface{}) (interface{}, error) {
	absPath, err := d.resolvePath(params)
	if err != nil {
		return nil, err
	}
	symbolID, err := requiredInt64(params, "symbol_id")
	if err != nil {
		return nil, err
	}
	if err := d.ensureIndexed(absPath); err != nil {
		return nil, err
	}
	db, err := d.Cache.Open(absPath)
	if err != nil {
		return nil, err
	}
	refs, err := db.GetReferences(symbolID)
	if err != nil {
		return nil, err
	}
	cfg := d.loadConfig(absPath)
	return applyMaxTokens(map[string]interface{}{"references": refs}, optionalInt(params, "max_tokens"), cfg), nil
}

func (d Deps) getDependencies(params map[string]interface{}) (interface{}, error) {
	absPath, err := d.resolvePath(params)
	if err != nil {
		return nil, err
	}
	symbolID, err := requiredInt64(params, "symbol_id")
	if err != nil {
		return nil, err
	}
	if err := d.ensureIndexed(absPath); err != nil {
		return nil, err
	}
	db, err := d.Cache.Open(absPath)
	if err != nil {
		return nil, err
	}
	deps, err := db.GetDependencies(symbolID)
	if err != nil {
		return nil, err
	}
	cfg := d.loadConfig(absPath)
	return applyMaxTokens(map[string]interface{}{"dependencies": deps}, optionalInt(params, "max_tokens"), cfg), nil
}

func (d Deps) indexStatus(params map[string]interface{}) (interface{}, error) {
	absPath, err := d.resolvePath(params)
	if err != nil {
		return nil, err
	}
	db, err := d.Cache.Open(absPath)
	if err != nil {
		return nil, err
	}
	status, err := db.GetIndexStatus(absPath)
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (d Deps) listRepos(params map[string]interface{}) (interface{}, error) {
	repos, err := d.Cache.ListIndexedRepos()
	if err != nil {
		return nil, err
	}
	cfg := d.loadConfig("")
	return applyMaxTokens(map[string]interface{}{"repos": repos}, optionalInt(params, "max_tokens"), cfg), nil
}

func (d Deps) deleteRepos(params map[string]interface{}) (interface{}, error) {
	v, ok := params["paths"]
	if !ok {
		return nil, errors.NewInvalidParameterError("paths", "missing")
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil, errors.NewInvalidParameterError("paths", "must be an array of strings")
	}

	var deleted int
	var errMsgs []string
	for _, item := range raw {
		p, ok := item.(string)
		if !ok {
			errMsgs = append(errMsgs, "non-string entry in paths")
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			errMsgs = append(errMsgs, p+": "+err.Error())
			continue
		}
		if err := d.Cache.DeleteRepoIndex(abs); err != nil {
			errMsgs = append(errMsgs, p+": "+err.Error())
			continue
		}
		deleted++
	}

	resp := map[string]interface{}{"deleted": deleted}
	if len(errMsgs) > 0 {
		resp["errors"] = errMsgs
	}
	return resp, nil
}
