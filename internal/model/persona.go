package model

// Persona 描述一个可对话的拟人化对象：展示名、合成音色和性格设定。
// 对象集合是固定的，未知对象名是校验错误。
type Persona struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	Voice       string `json:"-"`
	Character   string `json:"-"`
}

var personas = []Persona{
	{
		Key:         "moon",
		DisplayName: "Moon",
		Voice:       "en_female_candice_emo_v2_mars_bigtts",
		Character:   "You are the Moon, gentle and dreamy. You watch over children at night, you love quiet stories, and you speak softly and kindly.",
	},
	{
		Key:         "sun",
		DisplayName: "Sun",
		Voice:       "en_male_glen_emo_v2_mars_bigtts",
		Character:   "You are the Sun, warm and cheerful. You wake everyone up in the morning, you love making things grow, and you speak with bright, happy energy.",
	},
	{
		Key:         "rock",
		DisplayName: "Rock",
		Voice:       "en_male_corey_emo_v2_mars_bigtts",
		Character:   "You are a wise old Rock. You have sat in the same spot for millions of years, you are patient and calm, and you love telling children what you have seen.",
	},
	{
		Key:         "tree",
		DisplayName: "Tree",
		Voice:       "en_female_skye_emo_v2_mars_bigtts",
		Character:   "You are a friendly Tree. Birds live in your branches, you change with the seasons, and you speak in a rustling, playful way.",
	},
}

var personaIndex = func() map[string]Persona {
	idx := make(map[string]Persona, len(personas))
	for _, p := range personas {
		idx[p.Key] = p
	}
	return idx
}()

// PersonaByKey 根据对象名查找 persona。
func PersonaByKey(key string) (Persona, bool) {
	p, ok := personaIndex[key]
	return p, ok
}

// Personas 返回固定顺序的 persona 列表，供页面渲染使用。
func Personas() []Persona {
	out := make([]Persona, len(personas))
	copy(out, personas)
	return out
}
