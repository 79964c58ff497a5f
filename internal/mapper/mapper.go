package mapper

import (
	"fmt"
	"time"

	"github.com/miniforvaltaren/api/internal/domain"
)

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	}
}

// ToLandlordDTO converts Landlord to LandlordDTO
func ToLandlordDTO(landlord *domain.Landlord) domain.LandlordDTO {
	return domain.LandlordDTO{
		ID:      landlord.ID,
		OrgName: landlord.OrgName,
		Plan:    landlord.Plan,
	}
}

// ToMemberDTO converts LandlordMember (with User loaded) to MemberDTO
func ToMemberDTO(member *domain.LandlordMember) domain.MemberDTO {
	dto := domain.MemberDTO{
		UserID:    member.UserID,
		Role:      member.Role,
		CreatedAt: member.CreatedAt,
	}
	if member.User != nil {
		dto.Email = member.User.Email
		dto.Name = member.User.Name
	}
	return dto
}

// ToOrganizationDTO converts Organization to OrganizationDTO, including loaded memberships
func ToOrganizationDTO(org *domain.Organization) domain.OrganizationDTO {
	dto := domain.OrganizationDTO{
		ID:        org.ID,
		Name:      org.Name,
		CreatedAt: org.CreatedAt,
	}
	for i := range org.Memberships {
		m := &org.Memberships[i]
		md := domain.MembershipDTO{UserID: m.UserID, Role: m.Role}
		if m.User != nil {
			md.Email = m.User.Email
			md.Name = m.User.Name
		}
		dto.Members = append(dto.Members, md)
	}
	return dto
}

// ToPropertyDTO converts Property to PropertyDTO. baseURL prefixes the intake link.
func ToPropertyDTO(property *domain.Property, unitCount int, baseURL string) domain.PropertyDTO {
	return domain.PropertyDTO{
		ID:        property.ID,
		Name:      property.Name,
		Address:   property.Address,
		IntakeURL: IntakeURL(baseURL, property.IntakeToken),
		UnitCount: unitCount,
		CreatedAt: property.CreatedAt,
	}
}

// IntakeURL builds the public report link encoded in the QR code
func IntakeURL(baseURL, token string) string {
	return fmt.Sprintf("%s/report/%s", baseURL, token)
}

// ToUnitDTO converts Unit to UnitDTO. The active lease is picked from the
// loaded leases at now.
func ToUnitDTO(unit *domain.Unit, now time.Time, loc *time.Location) domain.UnitDTO {
	dto := domain.UnitDTO{
		ID:         unit.ID,
		PropertyID: unit.PropertyID,
		Label:      unit.Label,
		CreatedAt:  unit.CreatedAt,
	}
	if unit.Property != nil {
		dto.PropertyName = unit.Property.Name
	}
	for i := range unit.Leases {
		lease := &unit.Leases[i]
		if lease.IsActive(now) {
			ld := ToLeaseDTO(lease, now, loc)
			ld.UnitLabel = unit.Label
			dto.ActiveLease = &ld
			break
		}
	}
	return dto
}

// ToTenantDTO converts Tenant to TenantDTO
func ToTenantDTO(tenant *domain.Tenant) domain.TenantDTO {
	return domain.TenantDTO{
		ID:        tenant.ID,
		Name:      tenant.Name,
		Email:     tenant.Email,
		Phone:     tenant.Phone,
		CreatedAt: tenant.CreatedAt,
	}
}

// ToLeaseDTO converts Lease to LeaseDTO; dates are rendered as local calendar days
func ToLeaseDTO(lease *domain.Lease, now time.Time, loc *time.Location) domain.LeaseDTO {
	dto := domain.LeaseDTO{
		ID:           lease.ID,
		UnitID:       lease.UnitID,
		TenantID:     lease.TenantID,
		RentAmount:   lease.RentAmount,
		RentAmountKr: domain.FormatKronor(lease.RentAmount),
		DueDay:       lease.DueDay,
		StartDate:    FormatDate(lease.StartDate, loc),
		Active:       lease.IsActive(now),
	}
	if lease.EndDate != nil {
		end := FormatDate(*lease.EndDate, loc)
		dto.EndDate = &end
	}
	if lease.Unit != nil {
		dto.UnitLabel = lease.Unit.Label
		propertyID := lease.Unit.PropertyID
		dto.PropertyID = &propertyID
		if lease.Unit.Property != nil {
			dto.PropertyName = lease.Unit.Property.Name
		}
	}
	if lease.Tenant != nil {
		dto.TenantName = lease.Tenant.Name
	}
	return dto
}

// ToPaymentDTO converts Payment to PaymentDTO
func ToPaymentDTO(payment *domain.Payment) domain.PaymentDTO {
	return domain.PaymentDTO{
		ID:        payment.ID,
		InvoiceID: payment.RentInvoiceID,
		Amount:    payment.Amount,
		AmountKr:  domain.FormatKronor(payment.Amount),
		PaidDate:  payment.PaidDate,
	}
}

// ToInvoiceDTO converts RentInvoice to InvoiceDTO with any loaded payments
func ToInvoiceDTO(invoice *domain.RentInvoice, loc *time.Location) domain.InvoiceDTO {
	dto := domain.InvoiceDTO{
		ID:          invoice.ID,
		LeaseID:     invoice.LeaseID,
		Amount:      invoice.Amount,
		AmountKr:    domain.FormatKronor(invoice.Amount),
		DueDate:     FormatDate(invoice.DueDate, loc),
		Status:      invoice.Status,
		PeriodYear:  invoice.PeriodYear,
		PeriodMonth: invoice.PeriodMonth,
		PaidAt:      invoice.PaidAt,
	}
	if invoice.Lease != nil {
		if invoice.Lease.Tenant != nil {
			dto.TenantName = invoice.Lease.Tenant.Name
		}
		if invoice.Lease.Unit != nil {
			dto.UnitLabel = invoice.Lease.Unit.Label
		}
	}
	for i := range invoice.Payments {
		dto.Payments = append(dto.Payments, ToPaymentDTO(&invoice.Payments[i]))
	}
	return dto
}

// ToTicketDTO converts Ticket to TicketDTO
func ToTicketDTO(ticket *domain.Ticket) domain.TicketDTO {
	dto := domain.TicketDTO{
		ID:          ticket.ID,
		PropertyID:  ticket.PropertyID,
		UnitID:      ticket.UnitID,
		TenantID:    ticket.TenantID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      ticket.Status,
		CreatedAt:   ticket.CreatedAt,
		ClosedAt:    ticket.ClosedAt,
	}
	if ticket.Property != nil {
		dto.PropertyName = ticket.Property.Name
	}
	if ticket.Unit != nil {
		dto.UnitLabel = ticket.Unit.Label
	}
	if ticket.Tenant != nil {
		dto.TenantName = ticket.Tenant.Name
	}
	return dto
}

// ToQuotaDTO computes remaining headroom, never below zero
func ToQuotaDTO(used int64, limit int) domain.QuotaDTO {
	remaining := int64(limit) - used
	if remaining < 0 {
		remaining = 0
	}
	return domain.QuotaDTO{Used: used, Limit: limit, Remaining: remaining}
}

// FormatDate renders t as a calendar date in loc
func FormatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(domain.DateLayout)
}

// ParseDate reads a calendar date as local midnight in loc
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(domain.DateLayout, s, loc)
}
