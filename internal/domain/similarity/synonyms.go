package similarity

// synonymGroups maps a canonical category to its aliases. Both the key and
// every alias belong to the group.
var synonymGroups = map[string][]string{
	"техника":     {"электроника", "гаджеты", "устройства", "приборы"},
	"игры":        {"видеоигры", "геймы", "консоли", "игровые"},
	"одежда":      {"шмотки", "вещи", "гардероб", "fashion"},
	"еда":         {"продукты", "питание", "фастфуд", "food"},
	"транспорт":   {"машина", "авто", "автомобиль", "мото"},
	"развлечения": {"досуг", "отдых", "хобби", "fun"},
}

// groupIndex maps every term to the set of canonical keys it belongs to.
var groupIndex = buildGroupIndex(synonymGroups)

func buildGroupIndex(groups map[string][]string) map[string]map[string]struct{} {
	index := make(map[string]map[string]struct{})
	add := func(term, key string) {
		if index[term] == nil {
			index[term] = make(map[string]struct{})
		}
		index[term][key] = struct{}{}
	}

	for key, aliases := range groups {
		add(key, key)
		for _, alias := range aliases {
			add(alias, key)
		}
	}

	return index
}

// Synonyms reports whether a and b (already lower-cased) share a group.
func Synonyms(a, b string) bool {
	groupsA, ok := groupIndex[a]
	if !ok {
		return false
	}
	for key := range groupIndex[b] {
		if _, shared := groupsA[key]; shared {
			return true
		}
	}
	return false
}

// SynonymGroups returns a copy of the synonym table.
func SynonymGroups() map[string][]string {
	out := make(map[string][]string, len(synonymGroups))
	for key, aliases := range synonymGroups {
		out[key] = append([]string(nil), aliases...)
	}
	return out
}
