package core

// Taula base de llocs -> província. L'ordre compta: la passada per subcadena
// retorna la primera entrada que casa.
var provinceTable = []Rule{
	Exact("istanbul", "İstanbul"),
	Exact("ankara", "Ankara"),
	Exact("izmir", "İzmir"),
	Exact("bursa", "Bursa"),
	Exact("antalya", "Antalya"),
	Exact("adana", "Adana"),
	Exact("konya", "Konya"),
	Exact("gaziantep", "Gaziantep"),
	Exact("şanlıurfa", "Şanlıurfa"),
	Exact("kocaeli", "Kocaeli"),
	Exact("mersin", "Mersin"),
	Exact("diyarbakır", "Diyarbakır"),
	Exact("kayseri", "Kayseri"),
	Exact("eskişehir", "Eskişehir"),
	Exact("samsun", "Samsun"),
	Exact("denizli", "Denizli"),
	Exact("adapazarı", "Sakarya"),
	Exact("malatya", "Malatya"),
	Exact("kahramanmaraş", "Kahramanmaraş"),
	Exact("erzurum", "Erzurum"),
	Exact("van", "Van"),
	Exact("batman", "Batman"),
	Exact("elazığ", "Elazığ"),
	Exact("erzincan", "Erzincan"),
	Exact("sivas", "Sivas"),
	Exact("çorum", "Çorum"),
	Exact("tokat", "Tokat"),
	Exact("ordu", "Ordu"),
	Exact("giresun", "Giresun"),
	Exact("trabzon", "Trabzon"),
	Exact("rize", "Rize"),
	Exact("artvin", "Artvin"),
	Exact("gümüşhane", "Gümüşhane"),
	Exact("bayburt", "Bayburt"),
	Exact("kastamonu", "Kastamonu"),
	Exact("sinop", "Sinop"),
	Exact("çankırı", "Çankırı"),
	Exact("amasya", "Amasya"),
	Exact("yozgat", "Yozgat"),
	Exact("kırşehir", "Kırşehir"),
	Exact("nevşehir", "Nevşehir"),
	Exact("kırıkkale", "Kırıkkale"),
	Exact("aksaray", "Aksaray"),
	Exact("niğde", "Niğde"),
	Exact("kars", "Kars"),
	Exact("iğdır", "Iğdır"),
	Exact("ağrı", "Ağrı"),
	Exact("muş", "Muş"),
	Exact("bitlis", "Bitlis"),
	Exact("hakkari", "Hakkari"),
	Exact("şırnak", "Şırnak"),
	Exact("mardin", "Mardin"),
	Exact("siirt", "Siirt"),
	Exact("adıyaman", "Adıyaman"),
	Exact("kilis", "Kilis"),
	Exact("osmaniye", "Osmaniye"),
	Exact("hatay", "Hatay"),
	Exact("balıkesir", "Balıkesir"),
	Exact("çanakkale", "Çanakkale"),
	Exact("edirne", "Edirne"),
	Exact("kırklareli", "Kırklareli"),
	Exact("tekirdağ", "Tekirdağ"),
	Exact("bolu", "Bolu"),
	Exact("düzce", "Düzce"),
	Exact("zonguldak", "Zonguldak"),
	Exact("karabük", "Karabük"),
	Exact("bartın", "Bartın"),
	Exact("afyonkarahisar", "Afyonkarahisar"),
	Exact("afyon", "Afyonkarahisar"),
	Exact("kütahya", "Kütahya"),
	Exact("manisa", "Manisa"),
	Exact("uşak", "Uşak"),
	Exact("aydın", "Aydın"),
	Exact("muğla", "Muğla"),
	Exact("burdur", "Burdur"),
	Exact("isparta", "Isparta"),
	Exact("karaman", "Karaman"),
	// Províncies que la taula original no portava i noms antics habituals.
	Exact("sakarya", "Sakarya"),
	Exact("bilecik", "Bilecik"),
	Exact("bingöl", "Bingöl"),
	Exact("tunceli", "Tunceli"),
	Exact("yalova", "Yalova"),
	Exact("ardahan", "Ardahan"),
	Exact("alaşehir", "Manisa"),
	Exact("maraş", "Kahramanmaraş"),
	Exact("urfa", "Şanlıurfa"),
	Exact("antep", "Gaziantep"),
	Exact("içel", "Mersin"),
	Exact("izmit", "Kocaeli"),
	Exact("dersim", "Tunceli"),
	Exact("dersaadet", "İstanbul"),
	Exact("konstantiniyye", "İstanbul"),
	Exact("constantinople", "İstanbul"),
	Exact("smyrna", "İzmir"),
}

// DefaultSuffixes són les qualificacions de país o imperi que es tallen.
var DefaultSuffixes = []string{"Türkiye", "Osmanlı İmparatorluğu", "Osmanlı Devleti", "Osmanlı", "Turkey"}

// DefaultSentinels volen dir "lloc desconegut".
var DefaultSentinels = []string{"?", "unknown", "bilinmiyor", "nan", "-"}

// DefaultExclusions són valors que mai no són una província.
var DefaultExclusions = []string{"Unknown", "?", "Osmanlı", "Turkey", "Türkiye", "Osmanlı İmparatorluğu", "Osmanlı Devleti"}

// DefaultOverrides redirigeixen ciutats històriques a la regió actual.
var DefaultOverrides = []Rule{
	Exact("Selanik", "Centre Macedonia"),
	Exact("Selânik", "Centre Macedonia"),
}

// DefaultRules retorna el joc de regles per defecte amb política passthrough.
func DefaultRules() *RuleSet {
	return NewRuleSet(provinceTable).
		WithSuffixes(DefaultSuffixes...).
		WithSentinels(DefaultSentinels...).
		WithExclusions(DefaultExclusions...).
		WithOverrides(DefaultOverrides...)
}
