package domain

import "time"

// BikeKind is the constant partition value of the kind-bike_id GSI. Bike ids
// are ULIDs, so descending order on that index is newest-first.
const BikeKind = "bike"

// MaxImagesPerSlot bounds each image-reference list on a listing.
const MaxImagesPerSlot = 2

// Bike is a listing record. PK: bike_id. ListedBy is immutable after creation.
type Bike struct {
	BikeID            string    `json:"id" dynamodbav:"bike_id"`
	Kind              string    `json:"-" dynamodbav:"kind"`
	BillBookImages    []string  `json:"billBookImage" dynamodbav:"bill_book_images"`
	BikeImages        []string  `json:"bikeImage" dynamodbav:"bike_images"`
	Brand             string    `json:"brand" dynamodbav:"brand"`
	BikeName          string    `json:"bike_name" dynamodbav:"bike_name"`
	YearOfPurchase    int       `json:"year_of_purchase" dynamodbav:"year_of_purchase"`
	CC                int       `json:"cc" dynamodbav:"cc"`
	KmsDriven         int       `json:"kms_driven" dynamodbav:"kms_driven"`
	Owner             string    `json:"owner" dynamodbav:"owner"`
	Servicing         string    `json:"servicing" dynamodbav:"servicing"`
	EngineCondition   string    `json:"engine_condition" dynamodbav:"engine_condition"`
	PhysicalCondition string    `json:"physical_condition" dynamodbav:"physical_condition"`
	TyreCondition     string    `json:"tyre_condition" dynamodbav:"tyre_condition"`
	Price             int       `json:"price" dynamodbav:"price"`
	Description       string    `json:"description" dynamodbav:"description"`
	District          string    `json:"district" dynamodbav:"district"`
	ListedBy          string    `json:"listedBy" dynamodbav:"listed_by"`
	CreatedAt         time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt         time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

// BikeWithSeller is a listing with its owner's public profile in place of the
// owner reference.
type BikeWithSeller struct {
	Bike
	ListedBy *PublicProfile `json:"listedBy"`
}

// BikePage is one page of a newest-first listing query.
type BikePage struct {
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"totalPages"`
	Bikes      []Bike `json:"bikes"`
}

// BikeFields are the owner-supplied attributes of a new listing.
type BikeFields struct {
	Brand             string `json:"brand" validate:"required"`
	BikeName          string `json:"bike_name" validate:"required"`
	YearOfPurchase    int    `json:"year_of_purchase" validate:"required,min=1900,max=2100"`
	CC                int    `json:"cc" validate:"required,gt=0"`
	KmsDriven         int    `json:"kms_driven" validate:"min=0"`
	Owner             string `json:"owner" validate:"omitempty,oneof='First Owner' 'Second Owner' 'Third Owner' 'Fourth Owner Or More'"`
	Servicing         string `json:"servicing" validate:"omitempty,oneof=regular irregular"`
	EngineCondition   string `json:"engine_condition" validate:"omitempty,oneof=open seal"`
	PhysicalCondition string `json:"physical_condition" validate:"omitempty,oneof=fresh 'like new' old 'very old'"`
	TyreCondition     string `json:"tyre_condition" validate:"omitempty,oneof=new good worn"`
	Price             int    `json:"price" validate:"required,gt=0"`
	Description       string `json:"description"`
	District          string `json:"district"`
}

// BikePatch carries the fields present in an update request; nil means absent.
type BikePatch struct {
	Brand             *string `validate:"omitempty,min=1"`
	BikeName          *string `validate:"omitempty,min=1"`
	YearOfPurchase    *int    `validate:"omitempty,min=1900,max=2100"`
	CC                *int    `validate:"omitempty,gt=0"`
	KmsDriven         *int    `validate:"omitempty,min=0"`
	Owner             *string `validate:"omitempty,oneof='First Owner' 'Second Owner' 'Third Owner' 'Fourth Owner Or More'"`
	Servicing         *string `validate:"omitempty,oneof=regular irregular"`
	EngineCondition   *string `validate:"omitempty,oneof=open seal"`
	PhysicalCondition *string `validate:"omitempty,oneof=fresh 'like new' old 'very old'"`
	TyreCondition     *string `validate:"omitempty,oneof=new good worn"`
	Price             *int    `validate:"omitempty,gt=0"`
	Description       *string
	District          *string
}
