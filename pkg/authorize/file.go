package authorize

import (
	"fmt"
	"os"

	casbin "github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
)

// NewFileEnforcer builds an enforcer whose policies live in a CSV file
// instead of the casbin database. Used for local runs and tests. The file is
// created empty when missing. The file adapter does not support auto-save;
// call SavePolicy on the returned enforcer to persist changes.
func NewFileEnforcer(modelPath, policyPath string) (*casbin.DistributedEnforcer, error) {
	if _, err := os.Stat(policyPath); os.IsNotExist(err) {
		if err := os.WriteFile(policyPath, nil, 0o644); err != nil {
			return nil, fmt.Errorf("create policy file: %w", err)
		}
	}

	m, err := LoadModel(modelPath)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewDistributedEnforcer(m, fileadapter.NewAdapter(policyPath))
	if err != nil {
		return nil, err
	}
	e.EnableAutoSave(false)
	e.EnableEnforce(true)
	return e, nil
}
