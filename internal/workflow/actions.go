package workflow

import (
	"encoding/json"
	"strings"

	"github.com/alexp-buildit/WireSafe-Portal/internal/models"
)

// Action type strings, case-sensitive, one closed set per endpoint family.
const (
	// Buyer/lender family
	ActionVerifyOwnBankingInfo    = "VERIFY_OWN_BANKING_INFO"
	ActionVerifyEscrowBankingInfo = "VERIFY_ESCROW_BANKING_INFO"
	ActionAuthorizeWireTransfer   = "AUTHORIZE_WIRE_TRANSFER"
	ActionConfirmFundTransfer     = "CONFIRM_FUND_TRANSFER"

	// Seller family (VERIFY_OWN_BANKING_INFO is shared with the buyer family
	// but carries different prerequisites)
	ActionConfirmPropertyInformation = "CONFIRM_PROPERTY_INFORMATION"
	ActionAcknowledgePaymentReceipt  = "ACKNOWLEDGE_PAYMENT_RECEIPT"
	ActionVerifyIdentity             = "VERIFY_IDENTITY"

	// Escrow family
	ActionVerifyFundReceipt        = "VERIFY_FUND_RECEIPT"
	ActionVerifySellerIdentity     = "VERIFY_SELLER_IDENTITY"
	ActionConfirmSellerBankingInfo = "CONFIRM_SELLER_BANKING_INFO"
	ActionAuthorizeSellerPayment   = "AUTHORIZE_SELLER_PAYMENT"
	ActionFlagSuspiciousActivity   = "FLAG_SUSPICIOUS_ACTIVITY"
)

// BuyerAction is the closed set of actions a buyer or lender may submit.
// Adding a variant means adding a struct here, a parse arm, and an engine
// dispatch arm; the compiler flags anything missed.
type BuyerAction interface {
	isBuyerAction()
	Type() string
}

// SellerAction is the closed set of actions a seller may submit.
type SellerAction interface {
	isSellerAction()
	Type() string
}

// EscrowAction is the closed set of actions an escrow officer may submit.
type EscrowAction interface {
	isEscrowAction()
	Type() string
}

// ---------- Buyer/lender family payloads ----------

type BuyerVerifyOwnBankingInfo struct {
	Confirmed *bool `json:"confirmed"`
}

type VerifyEscrowBankingInfo struct {
	EscrowBankingInfoID string `json:"escrowBankingInfoId"`
	Confirmed           *bool  `json:"confirmed"`
}

type AuthorizeWireTransfer struct {
	WireAmount    *float64 `json:"wireAmount"`
	BankingInfoID string   `json:"bankingInfoId"`
	Authorized    *bool    `json:"authorized"`
}

type ConfirmFundTransfer struct {
	TransferReference string `json:"transferReference"`
	TransferDate      string `json:"transferDate"`
	Confirmed         *bool  `json:"confirmed"`
}

func (BuyerVerifyOwnBankingInfo) isBuyerAction() {}
func (VerifyEscrowBankingInfo) isBuyerAction()   {}
func (AuthorizeWireTransfer) isBuyerAction()     {}
func (ConfirmFundTransfer) isBuyerAction()       {}

func (BuyerVerifyOwnBankingInfo) Type() string { return ActionVerifyOwnBankingInfo }
func (VerifyEscrowBankingInfo) Type() string   { return ActionVerifyEscrowBankingInfo }
func (AuthorizeWireTransfer) Type() string     { return ActionAuthorizeWireTransfer }
func (ConfirmFundTransfer) Type() string       { return ActionConfirmFundTransfer }

// ---------- Seller family payloads ----------

type SellerVerifyOwnBankingInfo struct {
	Confirmed *bool `json:"confirmed"`
}

type ConfirmPropertyInformation struct {
	PropertyAddress string `json:"propertyAddress"`
	Confirmed       *bool  `json:"confirmed"`
}

type AcknowledgePaymentReceipt struct {
	PaymentAmount    *float64 `json:"paymentAmount"`
	PaymentDate      string   `json:"paymentDate"`
	PaymentReference string   `json:"paymentReference"`
	Acknowledged     *bool    `json:"acknowledged"`
}

type VerifyIdentity struct {
	FullName    string `json:"fullName"`
	LastFourSSN string `json:"lastFourSSN"`
	Verified    *bool  `json:"verified"`
}

func (SellerVerifyOwnBankingInfo) isSellerAction() {}
func (ConfirmPropertyInformation) isSellerAction() {}
func (AcknowledgePaymentReceipt) isSellerAction()  {}
func (VerifyIdentity) isSellerAction()             {}

func (SellerVerifyOwnBankingInfo) Type() string { return ActionVerifyOwnBankingInfo }
func (ConfirmPropertyInformation) Type() string { return ActionConfirmPropertyInformation }
func (AcknowledgePaymentReceipt) Type() string  { return ActionAcknowledgePaymentReceipt }
func (VerifyIdentity) Type() string             { return ActionVerifyIdentity }

// ---------- Escrow family payloads ----------

type VerifyFundReceipt struct {
	BuyerUserID    string   `json:"buyerUserId"`
	ExpectedAmount *float64 `json:"expectedAmount"`
	ReceivedAmount *float64 `json:"receivedAmount"`
	Verified       *bool    `json:"verified"`
	Reference      string   `json:"reference"`
}

type VerifySellerIdentity struct {
	SellerUserID      string   `json:"sellerUserId"`
	IdentityDocuments []string `json:"identityDocuments"`
	Verified          *bool    `json:"verified"`
}

type ConfirmSellerBankingInfo struct {
	SellerUserID string `json:"sellerUserId"`
	Confirmed    *bool  `json:"confirmed"`
}

type AuthorizeSellerPayment struct {
	SellerUserID  string   `json:"sellerUserId"`
	PaymentAmount *float64 `json:"paymentAmount"`
	Authorized    *bool    `json:"authorized"`
}

type FlagSuspiciousActivity struct {
	Reason      string          `json:"reason"`
	Description string          `json:"description"`
	Severity    models.Severity `json:"severity"`
}

func (VerifyFundReceipt) isEscrowAction()        {}
func (VerifySellerIdentity) isEscrowAction()     {}
func (ConfirmSellerBankingInfo) isEscrowAction() {}
func (AuthorizeSellerPayment) isEscrowAction()   {}
func (FlagSuspiciousActivity) isEscrowAction()   {}

func (VerifyFundReceipt) Type() string        { return ActionVerifyFundReceipt }
func (VerifySellerIdentity) Type() string     { return ActionVerifySellerIdentity }
func (ConfirmSellerBankingInfo) Type() string { return ActionConfirmSellerBankingInfo }
func (AuthorizeSellerPayment) Type() string   { return ActionAuthorizeSellerPayment }
func (FlagSuspiciousActivity) Type() string   { return ActionFlagSuspiciousActivity }

var (
	buyerActionTypes  = []string{ActionVerifyOwnBankingInfo, ActionVerifyEscrowBankingInfo, ActionAuthorizeWireTransfer, ActionConfirmFundTransfer}
	sellerActionTypes = []string{ActionVerifyOwnBankingInfo, ActionConfirmPropertyInformation, ActionAcknowledgePaymentReceipt, ActionVerifyIdentity}
	escrowActionTypes = []string{ActionVerifyFundReceipt, ActionVerifySellerIdentity, ActionConfirmSellerBankingInfo, ActionAuthorizeSellerPayment, ActionFlagSuspiciousActivity}
)

// ParseBuyerAction decodes an action type + payload into its typed variant.
// Unknown types and malformed payloads are invalid-input failures.
func ParseBuyerAction(actionType string, data json.RawMessage) (BuyerAction, error) {
	switch actionType {
	case ActionVerifyOwnBankingInfo:
		var a BuyerVerifyOwnBankingInfo
		return a, decodePayload(data, &a)
	case ActionVerifyEscrowBankingInfo:
		var a VerifyEscrowBankingInfo
		return a, decodePayload(data, &a)
	case ActionAuthorizeWireTransfer:
		var a AuthorizeWireTransfer
		return a, decodePayload(data, &a)
	case ActionConfirmFundTransfer:
		var a ConfirmFundTransfer
		return a, decodePayload(data, &a)
	default:
		return nil, unknownActionType(buyerActionTypes)
	}
}

// ParseSellerAction decodes an action type + payload into its typed variant.
func ParseSellerAction(actionType string, data json.RawMessage) (SellerAction, error) {
	switch actionType {
	case ActionVerifyOwnBankingInfo:
		var a SellerVerifyOwnBankingInfo
		return a, decodePayload(data, &a)
	case ActionConfirmPropertyInformation:
		var a ConfirmPropertyInformation
		return a, decodePayload(data, &a)
	case ActionAcknowledgePaymentReceipt:
		var a AcknowledgePaymentReceipt
		return a, decodePayload(data, &a)
	case ActionVerifyIdentity:
		var a VerifyIdentity
		return a, decodePayload(data, &a)
	default:
		return nil, unknownActionType(sellerActionTypes)
	}
}

// ParseEscrowAction decodes an action type + payload into its typed variant.
func ParseEscrowAction(actionType string, data json.RawMessage) (EscrowAction, error) {
	switch actionType {
	case ActionVerifyFundReceipt:
		var a VerifyFundReceipt
		return a, decodePayload(data, &a)
	case ActionVerifySellerIdentity:
		var a VerifySellerIdentity
		return a, decodePayload(data, &a)
	case ActionConfirmSellerBankingInfo:
		var a ConfirmSellerBankingInfo
		return a, decodePayload(data, &a)
	case ActionAuthorizeSellerPayment:
		var a AuthorizeSellerPayment
		return a, decodePayload(data, &a)
	case ActionFlagSuspiciousActivity:
		var a FlagSuspiciousActivity
		return a, decodePayload(data, &a)
	default:
		return nil, unknownActionType(escrowActionTypes)
	}
}

func decodePayload(data json.RawMessage, out any) error {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return InvalidInput("Invalid data", "Action data is malformed")
	}
	return nil
}

func unknownActionType(valid []string) error {
	return InvalidInput("Invalid action type", "Action type must be one of: "+strings.Join(valid, ", "))
}
