package extract

import (
	"fmt"
	"os"

	"github.com/usestring/nfextract-mcp/pkg/fiscal"
)

// LoadCatalog builds the rule catalog: the built-in tables with the given
// freight window, merged with the YAML overrides in rulesFile when set.
func LoadCatalog(rulesFile string, freightWindow int) (*fiscal.Catalog, error) {
	base := fiscal.NewCatalog(freightWindow)
	if rulesFile == "" {
		return base, nil
	}

	f, err := os.Open(rulesFile)
	if err != nil {
		return nil, fmt.Errorf("opening rules file: %w", err)
	}
	defer f.Close()

	overrides, err := fiscal.LoadOverrides(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rulesFile, err)
	}
	catalog, err := base.Apply(overrides)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rulesFile, err)
	}
	return catalog, nil
}
