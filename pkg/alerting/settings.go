package alerting

import "fmt"

// ContactPointsDocument is the YAML layout of a contact points file.
type ContactPointsDocument struct {
	APIVersion    int            `yaml:"apiVersion"`
	ContactPoints []ContactPoint `yaml:"contactPoints"`
}

// ContactPoint groups receivers under one name.
type ContactPoint struct {
	OrgID     int64      `yaml:"orgId"`
	Name      string     `yaml:"name"`
	Receivers []Receiver `yaml:"receivers"`
}

// Receiver is one typed notification target of a contact point.
type Receiver struct {
	UID                   string         `yaml:"uid"`
	Type                  string         `yaml:"type"`
	Settings              map[string]any `yaml:"settings"`
	DisableResolveMessage bool           `yaml:"disableResolveMessage"`
}

// ReceiverKey identifies a receiver without a known UID.
type ReceiverKey struct {
	Name string
	Type string
}

func (k ReceiverKey) String() string {
	return fmt.Sprintf("ContactPoint.%s/%s", k.Name, k.Type)
}

// PoliciesDocument is the YAML layout of a notification policies file.
// Policies is either a single routing tree or a list whose first element is
// the root.
type PoliciesDocument struct {
	APIVersion int `yaml:"apiVersion"`
	Policies   any `yaml:"policies"`
}

// Tree returns the root routing policy, or nil when the document has none.
func (d PoliciesDocument) Tree() map[string]any {
	switch p := d.Policies.(type) {
	case []any:
		if len(p) == 0 {
			return nil
		}
		root, _ := p[0].(map[string]any)
		if len(root) == 0 {
			return nil
		}
		return root
	case map[string]any:
		if len(p) == 0 {
			return nil
		}
		return p
	default:
		return nil
	}
}
