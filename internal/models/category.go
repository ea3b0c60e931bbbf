package models

// Category names a categorical profile attribute that dealbreakers can filter on.
type Category string

const (
	CategorySmoking    Category = "smoking"
	CategoryDrinking   Category = "drinking"
	CategoryWantsKids  Category = "wants_kids"
	CategoryLookingFor Category = "looking_for"
	CategoryEducation  Category = "education"
)

// Smoking values
const (
	SmokingNever     = "never"
	SmokingSometimes = "sometimes"
	SmokingRegularly = "regularly"
)

// Drinking values
const (
	DrinkingNever     = "never"
	DrinkingSocially  = "socially"
	DrinkingRegularly = "regularly"
)

// Kids stance values
const (
	WantsKidsNo      = "no"
	WantsKidsOpen    = "open"
	WantsKidsSomeday = "someday"
	WantsKidsHasKids = "has_kids"
)

// Relationship goal values
const (
	LookingForCasual    = "casual"
	LookingForShortTerm = "short_term"
	LookingForLongTerm  = "long_term"
	LookingForMarriage  = "marriage"
	LookingForUnsure    = "unsure"
)

// Education values
const (
	EducationHighSchool  = "high_school"
	EducationSomeCollege = "some_college"
	EducationBachelors   = "bachelors"
	EducationMasters     = "masters"
	EducationPhD         = "phd"
	EducationTradeSchool = "trade_school"
	EducationOther       = "other"
)

var categoryValues = map[Category][]string{
	CategorySmoking:    {SmokingNever, SmokingSometimes, SmokingRegularly},
	CategoryDrinking:   {DrinkingNever, DrinkingSocially, DrinkingRegularly},
	CategoryWantsKids:  {WantsKidsNo, WantsKidsOpen, WantsKidsSomeday, WantsKidsHasKids},
	CategoryLookingFor: {LookingForCasual, LookingForShortTerm, LookingForLongTerm, LookingForMarriage, LookingForUnsure},
	CategoryEducation: {
		EducationHighSchool, EducationSomeCollege, EducationBachelors, EducationMasters,
		EducationPhD, EducationTradeSchool, EducationOther,
	},
}

// Categories returns every category in a fixed evaluation order.
func Categories() []Category {
	return []Category{
		CategorySmoking,
		CategoryDrinking,
		CategoryWantsKids,
		CategoryLookingFor,
		CategoryEducation,
	}
}

// IsKnownCategory reports whether c is one of the defined categories.
func IsKnownCategory(c Category) bool {
	_, ok := categoryValues[c]
	return ok
}

// IsKnownValue reports whether value is a defined value of category c.
func IsKnownValue(c Category, value string) bool {
	for _, v := range categoryValues[c] {
		if v == value {
			return true
		}
	}
	return false
}

// ValuesOf returns a copy of the defined values of category c.
func ValuesOf(c Category) []string {
	values := categoryValues[c]
	out := make([]string, len(values))
	copy(out, values)
	return out
}

// Gender values
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// IsKnownGender reports whether g is a defined gender value.
func IsKnownGender(g string) bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}
