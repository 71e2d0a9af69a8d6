package acts

import (
	"fmt"
	"strings"
	"time"

	"github.com/ttacon/libphonenumber"

	"ebase/internal/core/id"
	"ebase/internal/core/types"
	"ebase/internal/domain/catalogs/part"
	"ebase/internal/domain/equipment"
	"ebase/internal/domain/repair"
)

// Placeholder tokens recognised in requisites tables and body paragraphs.
const (
	PhClient            = "{{ CLIENT }}"
	PhINN               = "{{ INN }}"
	PhKPP               = "{{ KPP }}"
	PhAddress           = "{{ ADDRESS }}"
	PhDepartment        = "{{ DEPARTMENT }}"
	PhPhone             = "{{ PHONE }}"
	PhEmail             = "{{ EMAIL }}"
	PhContact           = "{{ CONTACT }}"
	PhPosition          = "{{ POSITION }}"
	PhEquipment         = "{{ EQUIPMENT }}"
	PhSerial            = "{{ SERIAL_NUM }}"
	PhDate              = "{{ DATE }}"
	PhDay               = "{{ DAY }}"
	PhMonth             = "{{ MONTH }}"
	PhYear              = "{{ YEAR }}"
	PhEngineer          = "{{ ENGINEER }}"
	PhReason            = "{{ REASON }}"
	PhServiceType       = "{{ SERVICE_TYPE }}"
	PhReplacement       = "{{ REPLACEMENT }}"
	PhReplacementSerial = "{{ REPLACEMENT_SERIAL }}"
)

// Fallback texts for optional requisites.
const (
	NoPhone       = "телефон не указан"
	NoEmail       = "e-mail не указан"
	NoINN         = "ИНН не указан"
	NoKPP         = "КПП не указан"
	NoContact     = "контактное лицо не назначено"
	NoAddress     = "адрес не указан"
	NoReplacement = "подменное оборудование не предоставлялось"

	blankDate  = "__________"
	blankDay   = "____"
	blankMonth = "____________"
	blankYear  = "______"
)

// PhoneRegion is the default region for numbers written without a country code.
const PhoneRegion = "RU"

const fileDateLayout = "02.01.2006"

var monthsGenitive = [...]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// MonthGenitive returns the Russian month name as used in dates ("5 марта").
func MonthGenitive(m time.Month) string {
	return monthsGenitive[m-1]
}

// Snapshot is everything an act prints, loaded once per generation.
type Snapshot struct {
	Record      *repair.Record
	Card        *equipment.Card
	Parts       map[id.ID]*part.Part
	Replacement *repair.Replacement
	Date        *time.Time
}

// Placeholders builds the token → value map of the snapshot.
func Placeholders(s *Snapshot) map[string]string {
	card := s.Card
	m := map[string]string{
		PhEquipment:         card.FullName,
		PhSerial:            card.SerialNumber,
		PhINN:               NoINN,
		PhKPP:               NoKPP,
		PhPhone:             NoPhone,
		PhEmail:             NoEmail,
		PhContact:           NoContact,
		PhPosition:          "",
		PhAddress:           NoAddress,
		PhEngineer:          deref(s.Record.Engineer),
		PhReason:            deref(s.Record.Reason),
		PhServiceType:       deref(s.Record.ServiceType),
		PhReplacement:       NoReplacement,
		PhReplacementSerial: "",
	}

	var phone, email, address *string
	if c := card.Client; c != nil {
		m[PhClient] = c.Name
		if v := nonBlank(c.INN); v != "" {
			m[PhINN] = v
		}
		if v := nonBlank(c.KPP); v != "" {
			m[PhKPP] = v
		}
		phone, email, address = c.Phone, c.Email, c.Address
	}
	if d := card.Department; d != nil {
		m[PhDepartment] = d.Name
		if v := nonBlank(d.City); v != "" {
			m[PhDepartment] = d.Name + ", " + v
		}
		if nonBlank(d.Address) != "" {
			address = d.Address
		}
	}
	if c := card.Contact; c != nil {
		m[PhContact] = c.ShortName()
		m[PhPosition] = deref(c.Position)
		if nonBlank(c.Phone()) != "" {
			phone = c.Phone()
		}
		if nonBlank(c.Email) != "" {
			email = c.Email
		}
	}
	if v := nonBlank(phone); v != "" {
		m[PhPhone] = FormatPhone(v)
	}
	if v := nonBlank(email); v != "" {
		m[PhEmail] = v
	}
	if v := nonBlank(address); v != "" {
		m[PhAddress] = v
	}

	if r := s.Replacement; r != nil {
		m[PhReplacement] = r.EquipmentName
		m[PhReplacementSerial] = r.SerialNumber
	}

	if s.Date != nil {
		d := *s.Date
		m[PhDate] = d.Format(fileDateLayout)
		m[PhDay] = fmt.Sprintf("%02d", d.Day())
		m[PhMonth] = MonthGenitive(d.Month())
		m[PhYear] = fmt.Sprintf("%d", d.Year())
	} else {
		m[PhDate] = blankDate
		m[PhDay] = blankDay
		m[PhMonth] = blankMonth
		m[PhYear] = blankYear
	}
	return m
}

// FormatPhone renders a phone in international format. Numbers libphonenumber
// cannot parse or validate are returned trimmed and otherwise untouched.
func FormatPhone(raw string) string {
	raw = strings.TrimSpace(raw)
	num, err := libphonenumber.Parse(raw, PhoneRegion)
	if err != nil || !libphonenumber.IsValidNumber(num) {
		return raw
	}
	return libphonenumber.Format(num, libphonenumber.INTERNATIONAL)
}

// Item is one row of a list table.
type Item struct {
	Title    string
	Quantity string
}

// PartItems lists consumed parts in usage order, merging lots of the same part.
func PartItems(s *Snapshot) []Item {
	var (
		order  []id.ID
		totals = map[id.ID]types.Quantity{}
	)
	for _, u := range s.Record.Parts {
		if _, seen := totals[u.PartID]; !seen {
			order = append(order, u.PartID)
		}
		totals[u.PartID] += u.Quantity
	}

	items := make([]Item, 0, len(order))
	for _, pid := range order {
		title := pid.String()
		unit := ""
		if p, ok := s.Parts[pid]; ok {
			title, unit = p.Title(), p.Unit
		}
		items = append(items, Item{Title: title, Quantity: withUnit(totals[pid].String(), unit)})
	}
	return items
}

// AccessoryItems lists the accessories received with the equipment.
func AccessoryItems(s *Snapshot) []Item {
	items := make([]Item, 0, len(s.Record.Accessories))
	for _, a := range s.Record.Accessories {
		items = append(items, Item{Title: a.Name, Quantity: a.Quantity.String()})
	}
	return items
}

// ReplacementItems lists the loaner unit followed by its bundled accessories.
func ReplacementItems(s *Snapshot) []Item {
	r := s.Replacement
	if r == nil {
		return nil
	}
	items := []Item{{Title: fmt.Sprintf("%s s/n %s", r.EquipmentName, r.SerialNumber), Quantity: "1"}}
	for _, a := range r.Accessories {
		items = append(items, Item{Title: a, Quantity: "1"})
	}
	return items
}

var pathReplacer = strings.NewReplacer(" ", "_", "/", "-", "\\", "-")

// FileName is "<prefix>_<serial>[_<date>].docx" with the serial made path-safe.
func FileName(desc *Descriptor, serial string, date *time.Time) string {
	name := desc.Prefix + "_" + pathReplacer.Replace(serial)
	if date != nil {
		name += "_" + date.Format(fileDateLayout)
	}
	return name + ".docx"
}

// SanitizeDir turns an equipment short name into a single directory name.
// Names made only of dots are replaced so the path cannot leave its act directory.
func SanitizeDir(shortName string) string {
	name := pathReplacer.Replace(strings.TrimSpace(shortName))
	if strings.Trim(name, ".") == "" {
		return strings.Repeat("_", max(len(name), 1))
	}
	return name
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonBlank(s *string) string {
	return strings.TrimSpace(deref(s))
}

func withUnit(q, unit string) string {
	if unit == "" {
		return q
	}
	return q + " " + unit
}
