package policy

import "github.com/iliyamo/gym-management/internal/model"

// Member profile fields that can be edited through PUT /members/:id.
const (
	FieldFullName         = "full_name"
	FieldPhone            = "phone"
	FieldAddress          = "address"
	FieldEmergencyContact = "emergency_contact"
	FieldGoals            = "goals"
	FieldMedicalNotes     = "medical_notes"
	FieldMembership       = "membership"
	FieldIsActive         = "is_active"
)

var editable = map[model.Role][]string{
	model.RoleMember:  {FieldFullName, FieldPhone, FieldAddress, FieldEmergencyContact, FieldGoals},
	model.RoleTrainer: {FieldGoals, FieldMedicalNotes, FieldMembership},
	model.RoleAdmin: {FieldFullName, FieldPhone, FieldAddress, FieldEmergencyContact, FieldGoals,
		FieldMedicalNotes, FieldMembership, FieldIsActive},
}

// EditableMemberFields lists the member fields the actor's role may change.
// Center changes go through the MemberCenter resource instead.
func EditableMemberFields(a Actor) map[string]bool {
	out := map[string]bool{}
	for _, f := range editable[a.Role] {
		out[f] = true
	}
	return out
}
