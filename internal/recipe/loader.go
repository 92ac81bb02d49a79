package recipe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/TilmanGriesel/graphite-theme-patcher/internal/security"
	patcherrors "github.com/TilmanGriesel/graphite-theme-patcher/pkg/errors"
)

// Load reads a recipe document from a local path or an http(s) URL and
// validates it. Remote fetches are bounded by the security package's body
// size cap and timeout; oversized or slow responses fail closed.
func Load(ctx context.Context, source string) (*Recipe, error) {
	var (
		data []byte
		err  error
	)
	if isURL(source) {
		data, err = fetch(ctx, source)
	} else {
		data, err = readLocal(source)
	}
	if err != nil {
		return nil, err
	}

	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, patcherrors.NewRecipeError(source, fmt.Sprintf("invalid YAML: %v", err), err)
	}

	if err := Validate(source, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func readLocal(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, patcherrors.NewRecipeError(path, "recipe file not found", err)
	}
	if info.Size() > security.MaxFetchBytes {
		return nil, patcherrors.NewSecurityError("recipe", fmt.Sprintf("recipe too large (%d > %d bytes)", info.Size(), int64(security.MaxFetchBytes)), nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, patcherrors.NewRecipeError(path, "cannot read recipe file", err)
	}
	return data, nil
}

func fetch(ctx context.Context, url string) ([]byte, error) {
	client := &http.Client{Timeout: security.FetchTimeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, patcherrors.NewRecipeError(url, "invalid recipe URL", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, patcherrors.NewRecipeError(url, "recipe fetch failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, patcherrors.NewRecipeError(url, fmt.Sprintf("recipe fetch failed: %s", resp.Status), nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, security.MaxFetchBytes+1))
	if err != nil {
		return nil, patcherrors.NewRecipeError(url, "recipe fetch failed mid-body", err)
	}
	if int64(len(data)) > security.MaxFetchBytes {
		return nil, patcherrors.NewSecurityError("recipe", fmt.Sprintf("recipe body exceeds %d bytes", int64(security.MaxFetchBytes)), nil)
	}
	return data, nil
}
