package model

// Detail field names, matching the dataset columns.
const (
	FieldTrustScore          = "TrustScore"
	FieldRepaymentRate       = "RepaymentRate"
	FieldDisputeRate         = "DisputeRate"
	FieldDefaultRate         = "DefaultRate"
	FieldDisputeCount        = "DisputeCount"
	FieldTransactionVolume   = "TransactionVolume"
	FieldPaymentCount        = "PaymentCount"
	FieldTenureMonths        = "TenureMonths"
	FieldEngagementScore     = "EngagementScore"
	FieldComplianceScore     = "ComplianceScore"
	FieldResponsivenessScore = "ResponsivenessScore"
	FieldExclusivityFlag     = "ExclusivityFlag"
)
