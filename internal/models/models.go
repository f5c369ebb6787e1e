package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
)

// User is an account holder. Credits is an integer balance and must
// never go below zero. Password holds the credential secret: an
// argon2id PHC string for accounts created here, or a plain value in
// snapshots imported from older builds.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Credits  int    `json:"credits"`
	Role     Role   `json:"role"`
}

// CreditPackage is a purchasable bundle of credits. Order inside
// Settings.CreditPackages is display order.
type CreditPackage struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Credits int    `json:"credits"`
	Price   int    `json:"price"`
}

// PaymentDetails tells buyers where to send money offline.
type PaymentDetails struct {
	MethodName    string `json:"methodName"`
	AccountNumber string `json:"accountNumber"`
	QRCodeURL     string `json:"qrCodeUrl"`
}

type Settings struct {
	PaymentDetails PaymentDetails  `json:"paymentDetails"`
	CreditPackages []CreditPackage `json:"creditPackages"`
}

// PaymentRequest records one offline purchase attempt. The package
// fields are snapshotted at submission time: editing a package in
// Settings afterwards must not change the terms of a pending request.
type PaymentRequest struct {
	ID             string        `json:"id"`
	UserID         string        `json:"userId"`
	UserName       string        `json:"userName"`
	UserEmail      string        `json:"userEmail"`
	PackageID      string        `json:"packageId"`
	PackageName    string        `json:"packageName"`
	PackageCredits int           `json:"packageCredits"`
	PackagePrice   int           `json:"packagePrice"`
	TransactionID  string        `json:"transactionId"`
	Status         PaymentStatus `json:"status"`
	Date           time.Time     `json:"date"`
}

// GeneratedImage lives only in the UI session gallery; it is never
// part of the persisted snapshot.
type GeneratedImage struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"createdAt"`
}
