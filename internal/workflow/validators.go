package workflow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
)

// Validators are the per-action business rules. Each one checks its payload,
// reads whatever state it needs through the open StoreTx, and returns the
// normalized result echoed back to the caller and into the receipt. They
// never write; the engine owns the ledger append and any side effect.

type ownBankingResult struct {
	BankingInfoVerified bool   `json:"bankingInfoVerified"`
	BankingInfoID       string `json:"bankingInfoId"`
}

type escrowBankingResult struct {
	EscrowBankingInfoVerified bool   `json:"escrowBankingInfoVerified"`
	EscrowBankingInfoID       string `json:"escrowBankingInfoId"`
}

type wireAuthorizationResult struct {
	WireTransferAuthorized bool    `json:"wireTransferAuthorized"`
	WireAmount             float64 `json:"wireAmount"`
	BankingInfoID          string  `json:"bankingInfoId"`
}

type fundTransferResult struct {
	FundTransferConfirmed bool   `json:"fundTransferConfirmed"`
	TransferReference     string `json:"transferReference"`
	TransferDate          string `json:"transferDate"`
}

type propertyConfirmationResult struct {
	PropertyInformationConfirmed bool   `json:"propertyInformationConfirmed"`
	PropertyAddress              string `json:"propertyAddress"`
}

type paymentAcknowledgmentResult struct {
	PaymentReceiptAcknowledged bool    `json:"paymentReceiptAcknowledged"`
	PaymentAmount              float64 `json:"paymentAmount"`
	PaymentDate                string  `json:"paymentDate"`
	PaymentReference           *string `json:"paymentReference"`
}

type identityVerificationResult struct {
	IdentityVerified    bool   `json:"identityVerified"`
	FullName            string `json:"fullName"`
	LastFourSSNProvided bool   `json:"lastFourSSNProvided"`
}

type fundReceiptResult struct {
	FundReceiptVerified bool        `json:"fundReceiptVerified"`
	BuyerUserID         string      `json:"buyerUserId"`
	ExpectedAmount      float64     `json:"expectedAmount"`
	ReceivedAmount      float64     `json:"receivedAmount"`
	Reference           *string     `json:"reference"`
	VerifiedBy          models.Role `json:"verifiedBy"`
}

type sellerIdentityResult struct {
	SellerIdentityVerified bool        `json:"sellerIdentityVerified"`
	SellerUserID           string      `json:"sellerUserId"`
	IdentityDocuments      []string    `json:"identityDocuments"`
	VerifiedBy             models.Role `json:"verifiedBy"`
}

type sellerBankingConfirmationResult struct {
	SellerBankingInfoConfirmed bool        `json:"sellerBankingInfoConfirmed"`
	SellerUserID               string      `json:"sellerUserId"`
	ConfirmedBy                models.Role `json:"confirmedBy"`
}

type sellerPaymentResult struct {
	SellerPaymentAuthorized bool        `json:"sellerPaymentAuthorized"`
	SellerUserID            string      `json:"sellerUserId"`
	PaymentAmount           float64     `json:"paymentAmount"`
	AuthorizedBy            models.Role `json:"authorizedBy"`
}

type suspiciousActivityResult struct {
	Flagged     bool            `json:"flagged"`
	Reason      string          `json:"reason"`
	Description string          `json:"description"`
	Severity    models.Severity `json:"severity"`
	FlaggedBy   string          `json:"flaggedBy"`
}

// ---------- Buyer/lender family ----------

func validateBuyerOwnBanking(tx StoreTx, transactionID, userID string, a BuyerVerifyOwnBankingInfo) (any, error) {
	if a.Confirmed == nil {
		return nil, InvalidInput("Invalid confirmation", "Confirmation must be true or false")
	}
	record, err := tx.GetBankingRecord(transactionID, userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, BusinessRule("Banking information not found", "No banking information found for this user in this transaction")
	}
	return ownBankingResult{BankingInfoVerified: *a.Confirmed, BankingInfoID: record.ID}, nil
}

func validateEscrowBankingReference(tx StoreTx, transactionID string, a VerifyEscrowBankingInfo) (any, error) {
	if a.EscrowBankingInfoID == "" || a.Confirmed == nil {
		return nil, InvalidInput("Invalid data", "Escrow banking info ID and confirmation are required")
	}
	record, err := tx.GetEscrowBankingRecord(a.EscrowBankingInfoID, transactionID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, BusinessRule("Escrow banking information not found", "The specified escrow banking information does not exist")
	}
	return escrowBankingResult{EscrowBankingInfoVerified: *a.Confirmed, EscrowBankingInfoID: a.EscrowBankingInfoID}, nil
}

func validateWireAuthorization(tx StoreTx, transactionID, userID string, a AuthorizeWireTransfer) (any, error) {
	if a.WireAmount == nil || *a.WireAmount == 0 || a.BankingInfoID == "" || a.Authorized == nil {
		return nil, InvalidInput("Invalid data", "Wire amount, banking info ID, and authorization are required")
	}
	record, err := tx.GetBankingRecord(transactionID, userID)
	if err != nil {
		return nil, err
	}
	if record == nil || record.ID != a.BankingInfoID {
		return nil, BusinessRule("Banking information not found", "Banking information not found for this user")
	}
	var expected float64
	if record.Amount != nil {
		expected = *record.Amount
	}
	if !AmountsMatch(expected, *a.WireAmount) {
		return nil, BusinessRule("Amount mismatch",
			fmt.Sprintf("Wire amount %s does not match expected amount %s", formatAmount(*a.WireAmount), formatAmount(expected)))
	}
	return wireAuthorizationResult{WireTransferAuthorized: *a.Authorized, WireAmount: *a.WireAmount, BankingInfoID: a.BankingInfoID}, nil
}

func validateFundTransferConfirmation(a ConfirmFundTransfer) (any, error) {
	if a.TransferReference == "" || a.TransferDate == "" || a.Confirmed == nil {
		return nil, InvalidInput("Invalid data", "Transfer reference, date, and confirmation are required")
	}
	return fundTransferResult{FundTransferConfirmed: *a.Confirmed, TransferReference: a.TransferReference, TransferDate: a.TransferDate}, nil
}

// ---------- Seller family ----------

func validateSellerOwnBanking(tx StoreTx, transactionID, userID string, a SellerVerifyOwnBankingInfo) (any, error) {
	if a.Confirmed == nil {
		return nil, InvalidInput("Invalid confirmation", "Confirmation must be true or false")
	}
	record, err := tx.GetBankingRecord(transactionID, userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, BusinessRule("Banking information not found", "No banking information found for this seller in this transaction")
	}
	if !record.FullyApproved() {
		return nil, BusinessRule("Banking information not approved", "Banking information must be approved by both escrow officers before seller verification")
	}
	return ownBankingResult{BankingInfoVerified: *a.Confirmed, BankingInfoID: record.ID}, nil
}

func validatePropertyConfirmation(tx StoreTx, transactionID string, a ConfirmPropertyInformation) (any, error) {
	if a.PropertyAddress == "" || a.Confirmed == nil {
		return nil, InvalidInput("Invalid data", "Property address and confirmation are required")
	}
	t, err := tx.GetTransaction(transactionID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, BusinessRule("Transaction not found", "Transaction not found")
	}
	if !looseEqual(a.PropertyAddress, t.PropertyAddress) {
		return nil, BusinessRule("Property address mismatch", "Provided property address does not match transaction records")
	}
	return propertyConfirmationResult{PropertyInformationConfirmed: *a.Confirmed, PropertyAddress: t.PropertyAddress}, nil
}

func validatePaymentAcknowledgment(tx StoreTx, transactionID string, a AcknowledgePaymentReceipt) (any, error) {
	if a.PaymentAmount == nil || *a.PaymentAmount == 0 || a.PaymentDate == "" || a.Acknowledged == nil {
		return nil, InvalidInput("Invalid data", "Payment amount, date, and acknowledgment are required")
	}
	t, err := tx.GetTransaction(transactionID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, BusinessRule("Transaction not found", "Transaction not found")
	}
	if !AmountsMatch(t.PurchaseAmount, *a.PaymentAmount) {
		return nil, BusinessRule("Payment amount mismatch",
			fmt.Sprintf("Received amount %s does not match expected amount %s", formatAmount(*a.PaymentAmount), formatAmount(t.PurchaseAmount)))
	}
	return paymentAcknowledgmentResult{
		PaymentReceiptAcknowledged: *a.Acknowledged,
		PaymentAmount:              *a.PaymentAmount,
		PaymentDate:                a.PaymentDate,
		PaymentReference:           optionalString(a.PaymentReference),
	}, nil
}

func validateSellerSelfIdentity(tx StoreTx, userID string, a VerifyIdentity) (any, error) {
	if a.FullName == "" || a.LastFourSSN == "" || a.Verified == nil {
		return nil, InvalidInput("Invalid data", "Full name, last four SSN digits, and verification status are required")
	}
	if !isFourDigits(a.LastFourSSN) {
		return nil, InvalidInput("Invalid SSN format", "Last four SSN digits must be exactly 4 digits")
	}
	user, err := tx.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, BusinessRule("User not found", "User not found")
	}
	fullName := user.FirstName + " " + user.LastName
	if !looseEqual(a.FullName, fullName) {
		return nil, BusinessRule("Name mismatch", "Provided name does not match user records")
	}
	return identityVerificationResult{IdentityVerified: *a.Verified, FullName: fullName, LastFourSSNProvided: true}, nil
}

// ---------- Escrow family ----------

func validateFundReceipt(tx StoreTx, transactionID string, a VerifyFundReceipt, escrowRole models.Role) (any, error) {
	if a.BuyerUserID == "" || a.ExpectedAmount == nil || *a.ExpectedAmount == 0 ||
		a.ReceivedAmount == nil || *a.ReceivedAmount == 0 || a.Verified == nil {
		return nil, InvalidInput("Invalid data", "Buyer user ID, expected amount, received amount, and verification status are required")
	}
	record, err := tx.GetBankingRecordForRoles(transactionID, a.BuyerUserID, models.RoleBuyer, models.RoleLender)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, BusinessRule("Buyer banking information not found", "No banking information found for this buyer")
	}
	var bankingAmount float64
	if record.Amount != nil {
		bankingAmount = *record.Amount
	}
	if !AmountsMatch(bankingAmount, *a.ExpectedAmount) {
		return nil, BusinessRule("Amount mismatch",
			fmt.Sprintf("Expected amount %s does not match banking info amount %s", formatAmount(*a.ExpectedAmount), formatAmount(bankingAmount)))
	}
	return fundReceiptResult{
		FundReceiptVerified: *a.Verified,
		BuyerUserID:         a.BuyerUserID,
		ExpectedAmount:      *a.ExpectedAmount,
		ReceivedAmount:      *a.ReceivedAmount,
		Reference:           optionalString(a.Reference),
		VerifiedBy:          escrowRole,
	}, nil
}

func validateSellerIdentityAsEscrow(tx StoreTx, transactionID string, a VerifySellerIdentity, escrowRole models.Role) (any, error) {
	if a.SellerUserID == "" || a.IdentityDocuments == nil || a.Verified == nil {
		return nil, InvalidInput("Invalid data", "Seller user ID, identity documents, and verification status are required")
	}
	ok, err := tx.IsParticipant(transactionID, a.SellerUserID, models.RoleSeller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, BusinessRule("Seller not found", "Seller not found in this transaction")
	}
	return sellerIdentityResult{
		SellerIdentityVerified: *a.Verified,
		SellerUserID:           a.SellerUserID,
		IdentityDocuments:      a.IdentityDocuments,
		VerifiedBy:             escrowRole,
	}, nil
}

func validateSellerBankingConfirmation(tx StoreTx, transactionID string, a ConfirmSellerBankingInfo, escrowRole models.Role) (any, error) {
	if a.SellerUserID == "" || a.Confirmed == nil {
		return nil, InvalidInput("Invalid data", "Seller user ID and confirmation are required")
	}
	record, err := tx.GetBankingRecordForRoles(transactionID, a.SellerUserID, models.RoleSeller)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, BusinessRule("Seller banking information not found", "No banking information found for this seller")
	}
	if !record.FullyApproved() {
		return nil, BusinessRule("Banking information not approved", "Banking information must be approved by both escrow officers")
	}
	return sellerBankingConfirmationResult{
		SellerBankingInfoConfirmed: *a.Confirmed,
		SellerUserID:               a.SellerUserID,
		ConfirmedBy:                escrowRole,
	}, nil
}

func validateSellerPaymentAuthorization(t *models.Transaction, a AuthorizeSellerPayment, escrowRole models.Role) (any, error) {
	if a.SellerUserID == "" || a.PaymentAmount == nil || *a.PaymentAmount == 0 || a.Authorized == nil {
		return nil, InvalidInput("Invalid data", "Seller user ID, payment amount, and authorization are required")
	}
	if *a.PaymentAmount > t.PurchaseAmount {
		return nil, BusinessRule("Payment amount too high",
			fmt.Sprintf("Payment amount %s exceeds total transaction amount %s", formatAmount(*a.PaymentAmount), formatAmount(t.PurchaseAmount)))
	}
	return sellerPaymentResult{
		SellerPaymentAuthorized: *a.Authorized,
		SellerUserID:            a.SellerUserID,
		PaymentAmount:           *a.PaymentAmount,
		AuthorizedBy:            escrowRole,
	}, nil
}

func validateSuspiciousActivityFlag(userID string, a FlagSuspiciousActivity) (any, error) {
	if a.Reason == "" || a.Description == "" {
		return nil, InvalidInput("Invalid data", "Reason and description are required")
	}
	severity := a.Severity
	if severity != "" && !severity.Valid() {
		return nil, InvalidInput("Invalid severity", "Severity must be one of: low, medium, high, critical")
	}
	if severity == "" {
		severity = models.SeverityMedium
	}
	return suspiciousActivityResult{
		Flagged:     true,
		Reason:      a.Reason,
		Description: a.Description,
		Severity:    severity,
		FlaggedBy:   userID,
	}, nil
}

// looseEqual compares after trimming whitespace and lowercasing, matching how
// the portal compares human-entered strings against stored records.
func looseEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func isFourDigits(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// formatAmount renders amounts in error messages without trailing zeros.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
