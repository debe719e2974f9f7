package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserType distinguishes individual clients from legal entities
type UserType string

const (
	UserTypeIndividual UserType = "individual"
	UserTypeLegal      UserType = "legal"
)

// User is reference data from the external identity provider, read
// here only for ownership and role checks
type User struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          string             `bson:"userId" json:"userId"`
	TenantID        string             `bson:"tenantId" json:"tenantId"`
	Name            string             `bson:"name" json:"name"`
	IIN             string             `bson:"iin,omitempty" json:"iin,omitempty"`
	SID             string             `bson:"sid,omitempty" json:"sid,omitempty"`
	RoleValue       string             `bson:"roleValue" json:"roleValue"`
	UserType        UserType           `bson:"userType" json:"userType"`
	OrganizationIDs []string           `bson:"organizationIds,omitempty" json:"organizationIds,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsLegal reports whether the user acts as a legal entity
func (u *User) IsLegal() bool {
	return u.UserType == UserTypeLegal
}

// MemberOf reports whether the user belongs to the organization
func (u *User) MemberOf(organizationID string) bool {
	for _, id := range u.OrganizationIDs {
		if id == organizationID {
			return true
		}
	}
	return false
}

// Snapshot freezes the user's identity for denormalization onto a booking
func (u *User) Snapshot() PartySnapshot {
	return PartySnapshot{ID: u.UserID, Name: u.Name, IIN: u.IIN, SID: u.SID}
}

// Organization is reference data describing a verified legal entity
type Organization struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrgID       string             `bson:"orgId" json:"orgId"`
	TenantID    string             `bson:"tenantId" json:"tenantId"`
	Name        string             `bson:"name" json:"name"`
	BIN         string             `bson:"bin,omitempty" json:"bin,omitempty"`
	OwnerID     string             `bson:"ownerId" json:"ownerId"`
	IsVerified  bool               `bson:"isVerified" json:"isVerified"`
	EmployeeIDs []string           `bson:"employeeIds,omitempty" json:"employeeIds,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Employs reports whether the user is a registered employee
func (o *Organization) Employs(userID string) bool {
	if o.OwnerID == userID {
		return true
	}
	for _, id := range o.EmployeeIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Snapshot freezes the organization's display data
func (o *Organization) Snapshot() OrganizationSnapshot {
	return OrganizationSnapshot{ID: o.OrgID, Name: o.Name, BIN: o.BIN}
}

// Vehicle is reference data from the vehicle registry
type Vehicle struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID          string             `bson:"vehicleId" json:"vehicleId"`
	TenantID           string             `bson:"tenantId" json:"tenantId"`
	RegistrationNumber string             `bson:"registrationNumber" json:"registrationNumber"`
	Info               string             `bson:"info,omitempty" json:"info,omitempty"`
	OwnerID            string             `bson:"ownerId,omitempty" json:"ownerId,omitempty"`
	OrganizationID     string             `bson:"organizationId,omitempty" json:"organizationId,omitempty"`
	IsTrailer          bool               `bson:"isTrailer" json:"isTrailer"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Snapshot freezes the vehicle's registration data
func (v *Vehicle) Snapshot() VehicleSnapshot {
	return VehicleSnapshot{ID: v.VehicleID, RegistrationNumber: v.RegistrationNumber, Info: v.Info}
}
