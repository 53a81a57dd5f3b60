package models

type TransactionStatus string

const (
	TransactionStatusLead             TransactionStatus = "lead"
	TransactionStatusAppointmentSet   TransactionStatus = "appointment_set"
	TransactionStatusShowingScheduled TransactionStatus = "showing_scheduled"
	TransactionStatusOfferMade        TransactionStatus = "offer_made"
	TransactionStatusUnderContract    TransactionStatus = "under_contract"
	TransactionStatusClosed           TransactionStatus = "closed"
	TransactionStatusCancelled        TransactionStatus = "cancelled"
)

// Active reports whether the deal is still in the pipeline.
func (s TransactionStatus) Active() bool {
	return s != TransactionStatusClosed && s != TransactionStatusCancelled
}
