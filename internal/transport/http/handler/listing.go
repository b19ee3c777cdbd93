package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bike-resale-api/internal/application/image"
	"github.com/bike-resale-api/internal/application/listing"
	"github.com/bike-resale-api/internal/domain"
	"github.com/bike-resale-api/internal/transport/http/middleware"
)

// Multipart field names of the listing form.
const (
	formBillBookImage = "billBookImage"
	formBikeImage     = "bikeImage"
)

// ListingHandler handles listing browse and owner mutations.
type ListingHandler struct {
	query    listing.QueryService
	mutation listing.MutationService
	maxBytes int64
}

func NewListingHandler(q listing.QueryService, m listing.MutationService, maxUploadBytes int64) *ListingHandler {
	return &ListingHandler{query: q, mutation: m, maxBytes: maxUploadBytes}
}

func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.formLimit()); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	in := listing.CreateInput{}
	f := &in.Fields
	f.Brand = r.FormValue("brand")
	f.BikeName = r.FormValue("bike_name")
	f.Owner = r.FormValue("owner")
	f.Servicing = r.FormValue("servicing")
	f.EngineCondition = r.FormValue("engine_condition")
	f.PhysicalCondition = r.FormValue("physical_condition")
	f.TyreCondition = r.FormValue("tyre_condition")
	f.Description = r.FormValue("description")
	f.District = r.FormValue("district")
	for key, dst := range map[string]*int{
		"year_of_purchase": &f.YearOfPurchase,
		"cc":               &f.CC,
		"kms_driven":       &f.KmsDriven,
		"price":            &f.Price,
	} {
		n, _, err := formInt(r, key)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		*dst = n
	}

	uploads, closeAll, err := openUploads(r, formBillBookImage, formBikeImage)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer closeAll()
	in.BillBookImages, in.BikeImages = uploads[formBillBookImage], uploads[formBikeImage]

	b, err := h.mutation.Create(r.Context(), middleware.CallerID(r.Context()), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, BikeEnvelope{Message: "Bike listed successfully", Bike: b})
}

func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.formLimit()); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	in := listing.UpdateInput{BikeID: r.FormValue("bikeId")}
	p := &in.Patch
	for key, dst := range map[string]**string{
		"brand":              &p.Brand,
		"bike_name":          &p.BikeName,
		"owner":              &p.Owner,
		"servicing":          &p.Servicing,
		"engine_condition":   &p.EngineCondition,
		"physical_condition": &p.PhysicalCondition,
		"tyre_condition":     &p.TyreCondition,
		"description":        &p.Description,
		"district":           &p.District,
	} {
		if v := r.FormValue(key); v != "" {
			*dst = &v
		}
	}
	for key, dst := range map[string]**int{
		"year_of_purchase": &p.YearOfPurchase,
		"cc":               &p.CC,
		"kms_driven":       &p.KmsDriven,
		"price":            &p.Price,
	} {
		n, ok, err := formInt(r, key)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		if ok {
			*dst = &n
		}
	}

	uploads, closeAll, err := openUploads(r, formBillBookImage, formBikeImage)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer closeAll()
	in.BillBookImages, in.BikeImages = uploads[formBillBookImage], uploads[formBikeImage]

	b, err := h.mutation.Update(r.Context(), middleware.CallerID(r.Context()), in)
	if err != nil {
		writeServiceError(w, r, err,
			on(domain.ErrNotFound, "Bike not found"),
			on(domain.ErrForbidden, "Unauthorized to edit this bike"))
		return
	}
	writeJSON(w, http.StatusOK, BikeEnvelope{Message: "Bike updated successfully", Bike: b})
}

type deleteRequest struct {
	BikeID    string `json:"bikeId"`
	ListingID string `json:"listingId"`
}

func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	id := req.BikeID
	if id == "" {
		id = req.ListingID
	}
	if err := h.mutation.Delete(r.Context(), middleware.CallerID(r.Context()), id); err != nil {
		writeServiceError(w, r, err,
			on(domain.ErrNotFound, "Bike not found"),
			on(domain.ErrForbidden, "Unauthorized: You can only delete your own listing"))
		return
	}
	writeMessage(w, http.StatusOK, "Bike deleted successfully")
}

func (h *ListingHandler) MyListings(w http.ResponseWriter, r *http.Request) {
	bikes, err := h.query.ListOwnerListings(r.Context(), middleware.CallerID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BikeListEnvelope{Message: "Your listed bikes", Count: len(bikes), Bikes: bikes})
}

func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePagination(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.query.ListPage(r.Context(), page, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BikePageEnvelope{Message: "Resale bikes fetched successfully", BikePage: p})
}

func (h *ListingHandler) Filter(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePagination(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && err != io.EOF {
		writeMessage(w, http.StatusBadRequest, "Filter body must be a JSON object")
		return
	}
	f, err := domain.ParseListingFilter(raw)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := h.query.FilterPage(r.Context(), f, page, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BikePageEnvelope{Message: "Filtered bikes fetched successfully", BikePage: p})
}

func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.query.GetSingle(r.Context(), chi.URLParam(r, "bikeId"))
	if err != nil {
		writeServiceError(w, r, err, on(domain.ErrNotFound, "Bike not found"))
		return
	}
	writeJSON(w, http.StatusOK, BikeWithSellerEnvelope{Message: "Bike details fetched successfully", Bike: b})
}

// formLimit bounds a listing form: four images plus the text fields.
func (h *ListingHandler) formLimit() int64 {
	return 2*int64(domain.MaxImagesPerSlot)*h.maxBytes + 1<<20
}

// parsePagination reads page and limit, defaulting absent values.
func parsePagination(r *http.Request) (int, int, error) {
	page, limit := listing.DefaultPage, listing.DefaultLimit
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("page must be an integer")
		}
		page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("limit must be an integer")
		}
		limit = n
	}
	return page, limit, nil
}

// parseMultipart caps the request body at limit bytes and parses the form.
func parseMultipart(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return r.ParseMultipartForm(32 << 20)
}

// formInt reads a numeric form field, truncating fractions the same way
// filter bodies do. ok is false when the field is absent or blank.
func formInt(r *http.Request, key string) (n int, ok bool, err error) {
	v := r.FormValue(key)
	if v == "" {
		return 0, false, nil
	}
	n, err = domain.ParseInt(v)
	if err != nil {
		return 0, false, fmt.Errorf("%s must be an integer", key)
	}
	return n, true, nil
}

// openUploads opens every file under the given multipart fields. The
// returned func closes them all.
func openUploads(r *http.Request, fields ...string) (map[string][]image.Upload, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	out := make(map[string][]image.Upload, len(fields))
	if r.MultipartForm == nil {
		return out, closeAll, nil
	}
	for _, field := range fields {
		for _, fh := range r.MultipartForm.File[field] {
			f, err := fh.Open()
			if err != nil {
				closeAll()
				return nil, func() {}, err
			}
			opened = append(opened, f)
			out[field] = append(out[field], image.Upload{Reader: f, Filename: fh.Filename})
		}
	}
	return out, closeAll, nil
}
