package handler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ogurasousui/istakip/internal/core/finance"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var errInvalidRequest = errors.New("handler: invalid request")

// dateLayout は日付のみのリクエスト値に使う書式です。
const dateLayout = "2006-01-02"

// ReportGrpcHandler は ReportService の gRPC 実装です。
type ReportGrpcHandler struct {
	svc finance.UseCase
	UnimplementedReportServiceServer
}

var _ ReportServiceServer = (*ReportGrpcHandler)(nil)

// NewReportGrpcHandler は ReportGrpcHandler を生成します。
func NewReportGrpcHandler(svc finance.UseCase) *ReportGrpcHandler {
	return &ReportGrpcHandler{svc: svc}
}

// GetPersonnelBalance は担当者の残高を返します。
func (h *ReportGrpcHandler) GetPersonnelBalance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := int64Field(req, "personnel_id")
	if err != nil {
		return nil, toStatusError(err)
	}

	result, err := h.svc.GetPersonnelBalance(ctx, finance.PersonnelBalanceInput{PersonnelID: id})
	if err != nil {
		return nil, toStatusError(err)
	}

	openJobs := make([]any, 0, len(result.OpenJobs))
	for _, job := range result.OpenJobs {
		openJobs = append(openJobs, map[string]any{
			"job_id":  job.JobID,
			"date":    formatTime(job.Date),
			"earning": money(job.Earning),
			"paid":    money(job.Paid),
			"balance": money(job.Balance),
		})
	}

	return newStruct(map[string]any{
		"personnel_id": result.PersonnelID,
		"earnings":     money(result.Earnings),
		"paid":         money(result.Paid),
		"balance":      money(result.Balance),
		"open_jobs":    openJobs,
	})
}

// GetJobSummary は作業の費用と利益を返します。
func (h *ReportGrpcHandler) GetJobSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := int64Field(req, "job_id")
	if err != nil {
		return nil, toStatusError(err)
	}

	summary, err := h.svc.GetJobSummary(ctx, finance.JobSummaryInput{JobID: id})
	if err != nil {
		return nil, toStatusError(err)
	}

	return newStruct(map[string]any{
		"job_id":         summary.JobID,
		"customer_id":    summary.CustomerID,
		"income":         money(summary.Income),
		"personnel_cost": money(summary.PersonnelCost),
		"material_cost":  money(summary.MaterialCost),
		"cost":           money(summary.Cost),
		"profit":         money(summary.Profit),
	})
}

// GetCustomerSummary は顧客の集計を返します。
func (h *ReportGrpcHandler) GetCustomerSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := int64Field(req, "customer_id")
	if err != nil {
		return nil, toStatusError(err)
	}

	summary, err := h.svc.GetCustomerSummary(ctx, finance.CustomerSummaryInput{CustomerID: id})
	if err != nil {
		return nil, toStatusError(err)
	}

	locations := make([]any, 0, len(summary.Locations))
	for _, loc := range summary.Locations {
		jobIDs := make([]any, 0, len(loc.JobIDs))
		for _, jobID := range loc.JobIDs {
			jobIDs = append(jobIDs, jobID)
		}
		entry := totalsToMap(loc.CustomerTotals)
		entry["location"] = loc.Location
		entry["job_ids"] = jobIDs
		locations = append(locations, entry)
	}

	return newStruct(map[string]any{
		"customer": map[string]any{
			"id":          summary.Customer.ID,
			"name":        summary.Customer.Name,
			"phone":       summary.Customer.Phone,
			"address":     summary.Customer.Address,
			"description": summary.Customer.Description,
		},
		"totals":    totalsToMap(summary.Totals),
		"locations": locations,
	})
}

// GetMonthlyCashFlow は月次キャッシュフローを返します。year / month を省略した場合は当月です。
func (h *ReportGrpcHandler) GetMonthlyCashFlow(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	year, err := optionalInt64Field(req, "year")
	if err != nil {
		return nil, toStatusError(err)
	}
	month, err := optionalInt64Field(req, "month")
	if err != nil {
		return nil, toStatusError(err)
	}

	flow, err := h.svc.GetMonthlyCashFlow(ctx, finance.MonthlyCashFlowInput{Year: int(year), Month: time.Month(month)})
	if err != nil {
		return nil, toStatusError(err)
	}

	transactions := make([]any, 0, len(flow.Transactions))
	for _, tr := range flow.Transactions {
		transactions = append(transactions, map[string]any{
			"id":          tr.ID,
			"date":        formatTime(tr.Date),
			"type":        string(tr.Type),
			"description": tr.Description,
			"amount_in":   optionalMoney(tr.AmountIn),
			"amount_out":  optionalMoney(tr.AmountOut),
		})
	}

	return newStruct(map[string]any{
		"year":          flow.Year,
		"month":         int(flow.Month),
		"transactions":  transactions,
		"total_income":  money(flow.TotalIncome),
		"total_expense": money(flow.TotalExpense),
		"net_flow":      money(flow.NetFlow),
	})
}

// GetPeriodicReport は期間レポートを返します。
func (h *ReportGrpcHandler) GetPeriodicReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	start, err := timeField(req, "start")
	if err != nil {
		return nil, toStatusError(err)
	}
	end, err := timeField(req, "end")
	if err != nil {
		return nil, toStatusError(err)
	}

	report, err := h.svc.GetPeriodicReport(ctx, finance.PeriodicReportInput{Start: start, End: end})
	if err != nil {
		return nil, toStatusError(err)
	}

	customers := make([]any, 0, len(report.CustomerRows))
	for _, row := range report.CustomerRows {
		customers = append(customers, map[string]any{
			"customer_id":   row.CustomerID,
			"name":          row.Name,
			"job_count":     row.JobCount,
			"income":        money(row.Income),
			"cost":          money(row.Cost),
			"net_profit":    money(row.NetProfit),
			"profit_margin": row.ProfitMargin.StringFixed(2),
		})
	}

	personnel := make([]any, 0, len(report.PersonnelRows))
	for _, row := range report.PersonnelRows {
		personnel = append(personnel, map[string]any{
			"personnel_id": row.PersonnelID,
			"name":         row.Name,
			"job_count":    row.JobCount,
			"earnings":     money(row.Earnings),
		})
	}

	return newStruct(map[string]any{
		"start":          formatTime(report.Start),
		"end":            formatTime(report.End),
		"total_income":   money(report.TotalIncome),
		"total_cost":     money(report.TotalCost),
		"net_profit":     money(report.NetProfit),
		"job_count":      report.JobCount,
		"customer_rows":  customers,
		"personnel_rows": personnel,
	})
}

func totalsToMap(t finance.CustomerTotals) map[string]any {
	return map[string]any{
		"income":     money(t.Income),
		"cost":       money(t.Cost),
		"net_profit": money(t.NetProfit),
		"job_count":  t.JobCount,
	}
}

func newStruct(fields map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return s, nil
}

// money は金額を小数点以下 2 桁の文字列で表現します。
func money(v decimal.Decimal) string {
	return v.StringFixed(2)
}

func optionalMoney(v *decimal.Decimal) any {
	if v == nil {
		return nil
	}
	return money(*v)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func int64Field(req *structpb.Struct, name string) (int64, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, fmt.Errorf("%s is required: %w", name, errInvalidRequest)
	}
	return toInt64(name, v)
}

func optionalInt64Field(req *structpb.Struct, name string) (int64, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return 0, nil
	}
	return toInt64(name, v)
}

func toInt64(name string, v *structpb.Value) (int64, error) {
	num, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%s must be a number: %w", name, errInvalidRequest)
	}
	f := num.NumberValue
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("%s must be an integer: %w", name, errInvalidRequest)
	}
	return int64(f), nil
}

// timeField は RFC3339 もしくは YYYY-MM-DD 形式の日時を読み取ります。
func timeField(req *structpb.Struct, name string) (time.Time, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return time.Time{}, fmt.Errorf("%s is required: %w", name, errInvalidRequest)
	}
	raw, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return time.Time{}, fmt.Errorf("%s must be a string: %w", name, errInvalidRequest)
	}

	if t, err := time.Parse(time.RFC3339, raw.StringValue); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, raw.StringValue)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %q is not a valid date: %w", name, raw.StringValue, errInvalidRequest)
	}
	return t, nil
}
