// ABOUTME: Graphviz renderings of the deal stage machine and account relationships
// ABOUTME: Output is xdot source so it can be piped to dot or viewed directly
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/crmdesk/metrics"
	"github.com/harperreed/crmdesk/models"
)

func withGraph(ctx context.Context, label string, build func(*cgraph.Graph) error) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	graph.SetLabel(label)
	if err := build(graph); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}

// StageGraph draws each stage with its deal count and an edge for every
// transition the strict policy allows.
func StageGraph(ctx context.Context, pipeline []metrics.StageSummary) (string, error) {
	counts := make(map[models.Stage]metrics.StageSummary, len(pipeline))
	for _, s := range pipeline {
		counts[s.Stage] = s
	}

	return withGraph(ctx, "Deal Pipeline", func(graph *cgraph.Graph) error {
		graph.SetRankDir(cgraph.LRRank)

		nodes := make(map[models.Stage]*cgraph.Node, len(models.Stages))
		for _, stage := range models.Stages {
			node, err := graph.CreateNodeByName(string(stage))
			if err != nil {
				return fmt.Errorf("failed to create stage node: %w", err)
			}
			s := counts[stage]
			node.SetLabel(fmt.Sprintf("%s\n%d deals\n%s", stage, s.Count, money(s.Value)))
			node.SetShape("box")
			node.SetStyle("filled")
			switch stage {
			case models.StageClosedWon:
				node.SetFillColor("palegreen")
			case models.StageClosedLost:
				node.SetFillColor("lightpink")
			default:
				node.SetFillColor("lightblue")
			}
			nodes[stage] = node
		}

		for _, from := range models.Stages {
			for _, to := range models.AllowedTransitions(from) {
				edge, err := graph.CreateEdgeByName(fmt.Sprintf("%s->%s", from, to), nodes[from], nodes[to])
				if err != nil {
					return fmt.Errorf("failed to create transition edge: %w", err)
				}
				if to == models.StageLead && from == models.StageClosedLost {
					edge.SetLabel("reopen")
					edge.SetStyle("dashed")
				}
			}
		}
		return nil
	})
}

// AccountGraph links contacts and deals to their companies.
func AccountGraph(ctx context.Context, companies []models.Company, contacts []models.Contact, deals []models.Deal) (string, error) {
	return withGraph(ctx, "Accounts", func(graph *cgraph.Graph) error {
		companyNodes := make(map[int64]*cgraph.Node)
		byName := make(map[string]int64)
		for _, company := range companies {
			node, err := graph.CreateNodeByName(fmt.Sprintf("company_%d", company.ID))
			if err != nil {
				return fmt.Errorf("failed to create company node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n(Company)", company.Name))
			node.SetShape("box")
			node.SetStyle("filled")
			node.SetFillColor("lightblue")
			companyNodes[company.ID] = node
			byName[company.Name] = company.ID
		}

		companyFor := func(id *int64, name string) (*cgraph.Node, bool) {
			if id != nil {
				n, ok := companyNodes[*id]
				return n, ok
			}
			n, ok := companyNodes[byName[name]]
			return n, ok
		}

		contactNodes := make(map[int64]*cgraph.Node)
		for _, contact := range contacts {
			node, err := graph.CreateNodeByName(fmt.Sprintf("contact_%d", contact.ID))
			if err != nil {
				return fmt.Errorf("failed to create contact node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n%s", contact.Name, contact.Email))
			node.SetShape("ellipse")
			node.SetStyle("filled")
			node.SetFillColor("lightgreen")
			contactNodes[contact.ID] = node

			if companyNode, ok := companyFor(contact.CompanyID, contact.Company); ok {
				edge, err := graph.CreateEdgeByName(fmt.Sprintf("works_at_%d", contact.ID), node, companyNode)
				if err != nil {
					return fmt.Errorf("failed to create edge: %w", err)
				}
				edge.SetLabel("works at")
				edge.SetStyle("dashed")
			}
		}

		for _, deal := range deals {
			node, err := graph.CreateNodeByName(fmt.Sprintf("deal_%d", deal.ID))
			if err != nil {
				return fmt.Errorf("failed to create deal node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n%s\n(%s)", deal.DisplayName(), money(deal.DealValue), deal.Stage))
			node.SetShape("diamond")
			node.SetStyle("filled")
			node.SetFillColor("lightyellow")

			if companyNode, ok := companyFor(deal.CompanyID, deal.Company); ok {
				edge, err := graph.CreateEdgeByName(fmt.Sprintf("deal_with_%d", deal.ID), companyNode, node)
				if err != nil {
					return fmt.Errorf("failed to create edge: %w", err)
				}
				edge.SetLabel("deal")
			}
			if deal.ContactID != nil {
				if contactNode, ok := contactNodes[*deal.ContactID]; ok {
					edge, err := graph.CreateEdgeByName(fmt.Sprintf("contact_for_%d", deal.ID), contactNode, node)
					if err != nil {
						return fmt.Errorf("failed to create edge: %w", err)
					}
					edge.SetLabel("contact")
					edge.SetStyle("dotted")
				}
			}
		}
		return nil
	})
}
