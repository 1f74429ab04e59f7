package main

import (
	"context"
	"fmt"

	"github.com/xavierca1/sales-operator/internal/entity"
)

type sampleLead struct {
	entity.NewLeadInput
	Status string
}

var sampleLeads = []sampleLead{
	{entity.NewLeadInput{Name: "John Smith", Company: "TechCorp Inc", Email: "john.smith@techcorp.com"}, "new"},
	{entity.NewLeadInput{Name: "Sarah Johnson", Company: "Innovate Solutions", Email: "sarah.j@innovate.com"}, "contacted"},
	{entity.NewLeadInput{Name: "Mike Davis", Company: "Global Enterprises", Email: "mike.davis@global.com"}, "qualified"},
	{entity.NewLeadInput{Name: "Lisa Chen", Company: "StartupXYZ", Email: "lisa.chen@startupxyz.com"}, "converted"},
	{entity.NewLeadInput{Name: "David Wilson", Company: "MegaCorp", Email: "david.wilson@megacorp.com"}, "new"},
	{entity.NewLeadInput{Name: "Emily Brown", Company: "Creative Agency", Email: "emily.brown@creative.com"}, "contacted"},
	{entity.NewLeadInput{Name: "Alex Rodriguez", Company: "Digital Dynamics", Email: "alex.r@digital.com"}, "qualified"},
	{entity.NewLeadInput{Name: "Maria Garcia", Company: "Future Tech", Email: "maria.garcia@futuretech.com"}, "new"},
}

func seedLeads(ctx context.Context, leads entity.LeadRepository) (int, error) {
	for i, s := range sampleLeads {
		id, err := leads.Create(ctx, s.NewLeadInput)
		if err != nil {
			return i, fmt.Errorf("seed %s: %w", s.Name, err)
		}
		if s.Status != entity.LeadStatusNew {
			if err := leads.UpdateStatus(ctx, id, s.Status); err != nil {
				return i, fmt.Errorf("seed %s: %w", s.Name, err)
			}
		}
	}
	return len(sampleLeads), nil
}
