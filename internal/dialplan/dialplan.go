// Package dialplan renders the derived FreeSWITCH dialplan fragment for a
// call flow. The fragment is regenerated whenever the flow's day/night
// status flips and stored alongside the flow for the switch's XML curl
// lookups.
package dialplan

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/pbxgate/pbxgate/internal/database/models"
)

type contextNode struct {
	XMLName   xml.Name        `xml:"context"`
	Name      string          `xml:"name,attr"`
	Extension []extensionNode `xml:"extension"`
}

type extensionNode struct {
	Name      string          `xml:"name,attr"`
	Condition []conditionNode `xml:"condition"`
}

type conditionNode struct {
	Field  string       `xml:"field,attr,omitempty"`
	Expr   string       `xml:"expression,attr,omitempty"`
	Action []actionNode `xml:"action"`
}

type actionNode struct {
	App  string `xml:"application,attr"`
	Data string `xml:"data,attr,omitempty"`
}

// Generator renders call flow dialplan fragments.
type Generator struct{}

func NewGenerator() *Generator { return &Generator{} }

// Generate renders the dialplan fragment routing the flow's extension to
// its active destination. Status true routes to Destination (day mode),
// false to AlternateDestination (night mode). Destinations are "app:data"
// pairs; an empty active destination falls back to a plain hangup.
func (g *Generator) Generate(flow *models.CallFlow, domainName string) (string, error) {
	if flow.Extension == "" {
		return "", fmt.Errorf("call flow %s has no extension", flow.ID)
	}

	dest := flow.Destination
	if !flow.Status {
		dest = flow.AlternateDestination
	}
	actions := []actionNode{{App: "hangup"}}
	if dest != "" {
		app, data, _ := strings.Cut(dest, ":")
		actions = []actionNode{{App: app, Data: data}}
	}

	ctxName := flow.Context
	if ctxName == "" {
		ctxName = domainName
	}

	node := contextNode{
		Name: ctxName,
		Extension: []extensionNode{{
			Name: flow.Name,
			Condition: []conditionNode{{
				Field:  "destination_number",
				Expr:   fmt.Sprintf("^%s$", flow.Extension),
				Action: actions,
			}},
		}},
	}

	out, err := xml.MarshalIndent(node, "", "  ")
	if err != nil {
		return "", fmt.Errorf("rendering dialplan for call flow %s: %w", flow.ID, err)
	}
	return string(out) + "\n", nil
}
