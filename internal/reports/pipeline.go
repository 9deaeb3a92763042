// Package reports implements the AI Reports surface: chat sessions,
// the scripted report pipeline and report export. The pipeline is a
// fixed five stage state machine over pre-authored payloads; it
// consults no model and no external data, so identical input always
// yields an identical report.
package reports

import (
	"fmt"
	"strings"
	"time"
)

// ReportType is the coarse classification of a free-text request.
type ReportType string

const (
	ReportInventory ReportType = "inventory_analysis"
	ReportRisk      ReportType = "risk_analysis"
	ReportSales     ReportType = "sales_performance"
	ReportGeneral   ReportType = "general_analysis"
)

// Stage names the pipeline steps in execution order.
type Stage string

const (
	StageInterpreting   Stage = "interpreting"
	StagePlanning       Stage = "planning"
	StageDataCollection Stage = "data_collection"
	StageAnalysis       Stage = "analysis"
	StageGenerating     Stage = "generating"
	StageComplete       Stage = "complete"
)

var stageOrder = []Stage{
	StageInterpreting,
	StagePlanning,
	StageDataCollection,
	StageAnalysis,
	StageGenerating,
}

// StageProgress records one completed stage.
type StageProgress struct {
	Stage     Stage     `json:"stage"`
	Status    string    `json:"status"`
	Duration  float64   `json:"duration_seconds"`
	Timestamp time.Time `json:"timestamp"`
}

// State is the accumulated pipeline state. Each stage reads and
// extends it; a stage failure is appended to Errors and the next
// stage runs on whatever partial state exists.
type State struct {
	UserRequest string
	UserID      string
	SessionID   string

	CurrentStage  Stage
	StageProgress []StageProgress

	ReportType   ReportType
	RequiredKPIs []string
	DataFilters  map[string]interface{}

	RawData     map[string]interface{}
	DataSummary map[string]interface{}

	Analysis        map[string]interface{}
	Insights        []string
	Recommendations []string

	ReportTitle string
	ReportData  map[string]interface{}

	ProcessingTimes map[Stage]float64
	Errors          []string
}

type stageFunc func(*State) error

// Run drives a request through every stage in order. Errors are
// collected, never fatal; the final stage marker is always set.
func Run(userRequest, userID, sessionID string) *State {
	st := &State{
		UserRequest:     userRequest,
		UserID:          userID,
		SessionID:       sessionID,
		CurrentStage:    StageInterpreting,
		DataFilters:     map[string]interface{}{},
		ProcessingTimes: map[Stage]float64{},
	}

	handlers := map[Stage]stageFunc{
		StageInterpreting:   interpretRequest,
		StagePlanning:       planAnalysis,
		StageDataCollection: collectData,
		StageAnalysis:       analyzeData,
		StageGenerating:     generateReport,
	}

	for _, stage := range stageOrder {
		start := time.Now()
		st.CurrentStage = stage
		err := handlers[stage](st)
		elapsed := time.Since(start).Seconds()
		st.ProcessingTimes[stage] = elapsed
		if err != nil {
			st.Errors = append(st.Errors, fmt.Sprintf("%s: %v", stage, err))
			continue
		}
		st.StageProgress = append(st.StageProgress, StageProgress{
			Stage:     stage,
			Status:    "complete",
			Duration:  elapsed,
			Timestamp: time.Now(),
		})
	}
	st.CurrentStage = StageComplete
	return st
}

// Keyword vocabularies for classification. Checked in priority order;
// first category with a hit wins. The vocabularies carry both English
// and Portuguese forms because real requests arrive in both.
var (
	inventoryKeywords = []string{"inventário", "inventory", "estoque", "stock"}
	riskKeywords      = []string{"risco", "risk", "supply chain"}
	salesKeywords     = []string{"desempenho", "performance", "vendas", "sales"}
)

// Classify maps a free-text request to a report type by
// case-insensitive keyword containment.
func Classify(request string) ReportType {
	lower := strings.ToLower(request)
	containsAny := func(words []string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}
	switch {
	case containsAny(inventoryKeywords):
		return ReportInventory
	case containsAny(riskKeywords):
		return ReportRisk
	case containsAny(salesKeywords):
		return ReportSales
	default:
		return ReportGeneral
	}
}

func interpretRequest(st *State) error {
	st.ReportType = Classify(st.UserRequest)
	switch st.ReportType {
	case ReportInventory:
		st.RequiredKPIs = []string{"total_inventory", "turnover_rate", "fill_rate", "days_of_inventory", "slow_moving_items"}
	case ReportRisk:
		st.RequiredKPIs = []string{"supply_concentration", "geographic_risk", "lead_time_variation", "supplier_reliability"}
	case ReportSales:
		st.RequiredKPIs = []string{"total_sales", "growth_rate", "top_products", "regional_performance"}
	default:
		st.RequiredKPIs = []string{"total_inventory", "total_sales", "efficiency_rate"}
	}
	return nil
}

func planAnalysis(st *State) error {
	st.DataFilters = map[string]interface{}{
		"period":    "last_90_days",
		"countries": []string{"DE", "FR", "IT", "ES"},
		"status":    "active",
	}
	return nil
}

func collectData(st *State) error {
	switch st.ReportType {
	case ReportInventory:
		st.RawData = map[string]interface{}{
			"inventory": map[string]interface{}{
				"total_units":     45230,
				"total_value_eur": 2500000,
				"by_country":      map[string]interface{}{"DE": 15000, "FR": 12000, "IT": 10000, "ES": 8230},
				"by_category":     map[string]interface{}{"Electronics": 18000, "Components": 16000, "Raw Materials": 11230},
			},
			"sales":     map[string]interface{}{"last_30_days": 125000, "last_90_days": 385000, "growth_rate": 0.15},
			"warehouse": map[string]interface{}{"utilization": 0.78, "efficiency_score": 0.94, "locations_active": 12},
		}
	case ReportSales:
		st.RawData = map[string]interface{}{
			"sales": map[string]interface{}{
				"total_sales_eur": 4850000,
				"last_30_days":    385000,
				"last_90_days":    1250000,
				"growth_rate":     0.23,
				"by_country":      map[string]interface{}{"DE": 1850000, "FR": 1350000, "IT": 950000, "ES": 700000},
				"by_channel":      map[string]interface{}{"Online": 2100000, "Wholesale": 1950000, "Retail": 800000},
				"top_products":    []string{"Premium Electronics A", "Standard Components B", "Bulk Materials C"},
			},
			"customers": map[string]interface{}{"total_customers": 2847, "repeat_customers": 0.68, "average_order_value": 1705},
			"trends":    map[string]interface{}{"month_1": 0.08, "month_2": 0.15, "month_3": 0.23},
		}
	case ReportRisk:
		st.RawData = map[string]interface{}{
			"supply_chain": map[string]interface{}{
				"total_suppliers":          127,
				"critical_suppliers":       8,
				"supplier_concentration":   0.34,
				"geographic_concentration": 0.42,
				"lead_time_avg_days":       18,
				"lead_time_variance":       0.28,
			},
			"warehouse_risks": map[string]interface{}{
				"obsolete_inventory_pct": 0.12,
				"slow_moving_items":      342,
				"overstocked_products":   56,
			},
			"supply_disruptions": map[string]interface{}{
				"incidents_last_90_days":     3,
				"average_recovery_time_hours": 24,
				"affected_sales_pct":         0.08,
			},
			"geopolitical_risks": map[string]interface{}{
				"high_risk_regions": 2,
				"at_risk_suppliers": 12,
				"contingency_plans": "partial",
			},
		}
	default:
		st.RawData = map[string]interface{}{
			"inventory": map[string]interface{}{"total_units": 45230, "total_value_eur": 2500000},
			"sales":     map[string]interface{}{"last_90_days": 1250000, "growth_rate": 0.15},
			"warehouse": map[string]interface{}{"utilization": 0.78, "locations_active": 12},
			"suppliers": map[string]interface{}{"total": 127, "reliable": 0.89},
			"customers": map[string]interface{}{"total": 2847, "satisfaction": 0.92},
		}
	}

	st.DataSummary = map[string]interface{}{
		"records_processed": 45230,
		"time_range":        "last_90_days",
		"data_quality":      "high",
		"missing_values":    0,
	}
	return nil
}

func analyzeData(st *State) error {
	switch st.ReportType {
	case ReportInventory:
		st.Analysis = map[string]interface{}{
			"kpis": map[string]interface{}{
				"total_inventory_eur":   "€2,500,000",
				"turnover_rate":         "0.6x",
				"fill_rate":             "94.3%",
				"warehouse_utilization": "78.0%",
				"efficiency_score":      "94%",
			},
			"trends": map[string]interface{}{
				"inventory_trend":  "stable",
				"sales_trend":      "increasing",
				"efficiency_trend": "improving",
			},
		}
		st.Insights = []string{
			"Inventory is concentrated in Germany (33%) and France (27%)",
			"Annual turnover of 8.6x indicates healthy stock flow",
			"Warehouse utilization at 78% leaves room for growth",
			"Electronics accounts for 40% of total inventory",
		}
		st.Recommendations = []string{
			"Consider redistributing stock to Italy and Spain to improve local coverage",
			"Turnover of 8.6x is healthy, keep the current replenishment strategy",
			"Use the 22% free capacity to plan for 15-20% growth",
			"Add demand forecasting for Electronics, the most critical category",
		}
	case ReportSales:
		st.Analysis = map[string]interface{}{
			"kpis": map[string]interface{}{
				"total_sales_eur":      "€4,850,000",
				"growth_rate":          "23.0%",
				"avg_order_value":      "€1,705",
				"repeat_customer_rate": "68%",
				"total_customers":      "2,847",
			},
			"trends": map[string]interface{}{
				"sales_trend":    "strong_increasing",
				"customer_trend": "growing",
				"revenue_trend":  "accelerating",
			},
		}
		st.Insights = []string{
			"Sales growth of 23.0% indicates strong market demand",
			"Germany leads with €1.85M in sales (38% of total)",
			"The online channel is the biggest contributor with 43% of total sales",
			"A repeat customer rate of 68% shows good retention",
		}
		st.Recommendations = []string{
			"Expand the 'Premium Electronics A' line that leads sales",
			"Increase investment in the online channel, the best performing one",
			"Launch a loyalty program to leverage the 68% repeat customer base",
			"Replicate the German market strategy in secondary markets",
		}
	case ReportRisk:
		st.Analysis = map[string]interface{}{
			"kpis": map[string]interface{}{
				"supplier_concentration": "34%",
				"critical_suppliers":     "8 of 127",
				"lead_time_days":         "18 days",
				"supply_disruptions":     "3 in 90 days",
				"at_risk_regions":        "2 identified",
			},
			"trends": map[string]interface{}{
				"risk_trend":          "moderate",
				"supplier_resilience": "needs_improvement",
				"geopolitical_risk":   "increasing",
			},
		}
		st.Insights = []string{
			"Supplier concentration of 34% indicates moderate supply chain risk",
			"12 suppliers in high risk regions represent 9% of the base",
			"3 incidents in 90 days with an average recovery time of 24h",
			"Contingency plans are only partial, critical gaps remain",
		}
		st.Recommendations = []string{
			"Diversify suppliers: grow the alternative supplier pool from 8 to 15",
			"Put a complete contingency plan in place for geopolitical risk regions",
			"Reduce lead time variance of 28% through long term partnerships",
			"Monitor obsolete items (12%) and plan their liquidation",
		}
	default:
		st.Analysis = map[string]interface{}{
			"kpis": map[string]interface{}{
				"total_inventory":       "€2,500,000",
				"total_sales_90d":       "€1,250,000",
				"warehouse_locations":   "12",
				"supplier_reliability":  "89%",
				"customer_satisfaction": "92%",
			},
			"trends": map[string]interface{}{
				"overall_trend":    "positive",
				"growth_trend":     "increasing",
				"efficiency_trend": "stable",
			},
		}
		st.Insights = []string{
			"Supply chain in overall positive condition with 15% growth",
			"127 active suppliers with 89% reliability",
			"2,847 customers with 92% satisfaction",
			"Operations span 12 geographically distributed warehouse locations",
		}
		st.Recommendations = []string{
			"Keep investing in supplier diversification",
			"Expand presence in secondary markets based on current growth",
			"Automate warehouse operations to improve efficiency",
			"Deepen the customer satisfaction analysis",
		}
	}
	return nil
}

var reportTitles = map[ReportType]string{
	ReportInventory: "Detailed Inventory Analysis - Last 90 Days",
	ReportRisk:      "Supply Chain Risk Assessment",
	ReportSales:     "Sales Performance Report",
	ReportGeneral:   "General Supply Chain Analysis",
}

func generateReport(st *State) error {
	title, ok := reportTitles[st.ReportType]
	if !ok {
		title = "Supply Chain Report"
	}
	st.ReportTitle = title

	analysis := st.Analysis
	if analysis == nil {
		analysis = map[string]interface{}{}
	}
	recordsAnalyzed := interface{}(nil)
	if st.DataSummary != nil {
		recordsAnalyzed = st.DataSummary["records_processed"]
	}

	st.ReportData = map[string]interface{}{
		"executive_summary": map[string]interface{}{
			"overview":         fmt.Sprintf("Complete %s analysis finished successfully", strings.ReplaceAll(string(st.ReportType), "_", " ")),
			"period":           "Last 90 days",
			"records_analyzed": recordsAnalyzed,
			"confidence_level": "98%",
		},
		"kpis": analysis["kpis"],
		"charts": []map[string]interface{}{
			{
				"type":      "line",
				"title":     "Inventory Trend",
				"data":      chartData("line"),
				"countries": []string{"DE", "FR", "IT", "ES"},
			},
			{
				"type":  "bar",
				"title": "Distribution by Country",
				"data":  chartData("bar"),
			},
			{
				"type":  "pie",
				"title": "Composition by Category",
				"data":  chartData("pie"),
			},
		},
		"data_table": dataTable(),
		"trends":     analysis["trends"],
	}
	return nil
}

func chartData(chartType string) []map[string]interface{} {
	switch chartType {
	case "line":
		return []map[string]interface{}{
			{"month": "Jan", "DE": 12000, "FR": 10000, "IT": 8500, "ES": 7000},
			{"month": "Feb", "DE": 13000, "FR": 11000, "IT": 9000, "ES": 7500},
			{"month": "Mar", "DE": 15000, "FR": 12000, "IT": 10000, "ES": 8230},
		}
	case "bar":
		return []map[string]interface{}{
			{"country": "Germany", "value": 15000},
			{"country": "France", "value": 12000},
			{"country": "Italy", "value": 10000},
			{"country": "Spain", "value": 8230},
		}
	case "pie":
		return []map[string]interface{}{
			{"label": "Electronics", "value": 40},
			{"label": "Components", "value": 35},
			{"label": "Raw Materials", "value": 25},
		}
	}
	return nil
}

func dataTable() map[string]interface{} {
	return map[string]interface{}{
		"columns": []string{"Product", "Stock (Units)", "Value (EUR)", "Turnover", "Last Updated"},
		"rows": [][]string{
			{"Product A", "8,500", "€425,000", "12.5x", "30 Jan 2026"},
			{"Product B", "6,200", "€310,000", "10.8x", "29 Jan 2026"},
			{"Product C", "5,800", "€290,000", "9.2x", "28 Jan 2026"},
			{"Product D", "4,500", "€225,000", "8.5x", "27 Jan 2026"},
			{"Product E", "3,900", "€195,000", "7.1x", "26 Jan 2026"},
		},
		"pagination": map[string]interface{}{
			"current_page":   1,
			"total_pages":    12,
			"items_per_page": 5,
			"total_items":    57,
		},
	}
}
