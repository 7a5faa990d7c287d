package character

import "strings"

// Condition is one of the official status conditions.
type Condition string

const (
	ConditionBlinded       Condition = "blinded"
	ConditionCharmed       Condition = "charmed"
	ConditionDeafened      Condition = "deafened"
	ConditionExhaustion    Condition = "exhaustion"
	ConditionFrightened    Condition = "frightened"
	ConditionGrappled      Condition = "grappled"
	ConditionIncapacitated Condition = "incapacitated"
	ConditionInvisible     Condition = "invisible"
	ConditionParalyzed     Condition = "paralyzed"
	ConditionPetrified     Condition = "petrified"
	ConditionPoisoned      Condition = "poisoned"
	ConditionProne         Condition = "prone"
	ConditionRestrained    Condition = "restrained"
	ConditionStunned       Condition = "stunned"
	ConditionUnconscious   Condition = "unconscious"
)

// Conditions lists every official condition.
func Conditions() []Condition {
	return []Condition{
		ConditionBlinded,
		ConditionCharmed,
		ConditionDeafened,
		ConditionExhaustion,
		ConditionFrightened,
		ConditionGrappled,
		ConditionIncapacitated,
		ConditionInvisible,
		ConditionParalyzed,
		ConditionPetrified,
		ConditionPoisoned,
		ConditionProne,
		ConditionRestrained,
		ConditionStunned,
		ConditionUnconscious,
	}
}

// ParseCondition reads a condition name case-insensitively.
func ParseCondition(value string) (Condition, bool) {
	needle := strings.ToLower(strings.TrimSpace(value))
	for _, condition := range Conditions() {
		if string(condition) == needle {
			return condition, true
		}
	}
	return "", false
}

// DisplayName renders the condition with a leading capital.
func (c Condition) DisplayName() string {
	if c == "" {
		return ""
	}
	value := string(c)
	return strings.ToUpper(value[:1]) + value[1:]
}

// DamageType is one of the standard damage categories.
type DamageType string

const (
	DamageAcid        DamageType = "acid"
	DamageBludgeoning DamageType = "bludgeoning"
	DamageCold        DamageType = "cold"
	DamageFire        DamageType = "fire"
	DamageForce       DamageType = "force"
	DamageLightning   DamageType = "lightning"
	DamageNecrotic    DamageType = "necrotic"
	DamagePiercing    DamageType = "piercing"
	DamagePoison      DamageType = "poison"
	DamagePsychic     DamageType = "psychic"
	DamageRadiant     DamageType = "radiant"
	DamageSlashing    DamageType = "slashing"
	DamageThunder     DamageType = "thunder"
)

// DamageTypes lists every standard damage category.
func DamageTypes() []DamageType {
	return []DamageType{
		DamageAcid,
		DamageBludgeoning,
		DamageCold,
		DamageFire,
		DamageForce,
		DamageLightning,
		DamageNecrotic,
		DamagePiercing,
		DamagePoison,
		DamagePsychic,
		DamageRadiant,
		DamageSlashing,
		DamageThunder,
	}
}

// ParseDamageType reads a damage type case-insensitively. Empty input is
// valid and means untyped damage.
func ParseDamageType(value string) (DamageType, bool) {
	needle := strings.ToLower(strings.TrimSpace(value))
	if needle == "" {
		return "", true
	}
	for _, damageType := range DamageTypes() {
		if string(damageType) == needle {
			return damageType, true
		}
	}
	return "", false
}
