package store

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixture describes the ODBC configuration of both scopes in YAML form.
//
//	system:
//	  drivers:
//	    - name: SQL Anywhere 12
//	      attributes:
//	        Driver: dbodbc12.dll
//	  dsns:
//	    - name: Sales
//	      driver: SQL Anywhere 12
//	      attributes:
//	        ServerName: db1
type Fixture struct {
	System ScopeFixture `yaml:"system"`
	User   ScopeFixture `yaml:"user"`
}

// ScopeFixture holds the drivers and data sources of one scope
type ScopeFixture struct {
	Drivers []EntryFixture `yaml:"drivers"`
	DSNs    []EntryFixture `yaml:"dsns"`
}

// EntryFixture is one driver or data source registration.
// Unregistered entries get a detail location but no index value;
// entries with NoDetail get an index value but no detail location.
type EntryFixture struct {
	Name       string     `yaml:"name"`
	Driver     string     `yaml:"driver,omitempty"`
	Attributes Attributes `yaml:"attributes,omitempty"`
	Unindexed  bool       `yaml:"unindexed,omitempty"`
	NoDetail   bool       `yaml:"no_detail,omitempty"`
}

// Attributes is an ordered list of name/value pairs decoded from a YAML mapping
type Attributes [][2]string

// UnmarshalYAML keeps mapping order, which a Go map would lose
func (a *Attributes) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: attributes must be a mapping", n.Line)
	}
	out := make(Attributes, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, [2]string{n.Content[i].Value, n.Content[i+1].Value})
	}
	*a = out
	return nil
}

// LoadFixture reads a YAML fixture file into a new Memory store
func LoadFixture(path string) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture: %w", err)
	}
	defer f.Close()

	return ReadFixture(f)
}

// ReadFixture decodes a YAML fixture into a new Memory store
func ReadFixture(r io.Reader) (*Memory, error) {
	var fx Fixture
	if err := yaml.NewDecoder(r).Decode(&fx); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return fx.Build(), nil
}

// Build populates a Memory store from the fixture
func (fx *Fixture) Build() *Memory {
	m := NewMemory()
	fx.System.apply(m, ScopeSystem)
	fx.User.apply(m, ScopeUser)
	return m
}

func (sf *ScopeFixture) apply(m *Memory, scope Scope) {
	if len(sf.Drivers) > 0 {
		m.CreatePath(scope, DriversIndexPath)
	}
	for _, d := range sf.Drivers {
		if !d.Unindexed {
			m.Set(scope, DriversIndexPath, d.Name, "Installed")
		}
		if !d.NoDetail {
			m.CreatePath(scope, DriverPath(d.Name))
			m.SetAll(scope, DriverPath(d.Name), d.Attributes...)
		}
	}

	if len(sf.DSNs) > 0 {
		m.CreatePath(scope, DSNIndexPath)
	}
	for _, d := range sf.DSNs {
		if !d.Unindexed {
			m.Set(scope, DSNIndexPath, d.Name, d.Driver)
		}
		if !d.NoDetail {
			m.CreatePath(scope, DSNPath(d.Name))
			m.SetAll(scope, DSNPath(d.Name), d.Attributes...)
		}
	}
}
