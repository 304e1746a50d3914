package concepts

// entity is a named subject of a question, with the words that reveal it in a
// question and the words that find it in article text.
type entity struct {
	name   string
	detect []string
	search []string
}

var entities = []entity{
	{"enfants", []string{"enfant", "enfants", "jeune", "jeunes", "mineur", "mineurs", "scolarité"}, []string{"enfant", "jeune", "mineur", "scolarité"}},
	{"éducation", []string{"éducation", "enseignement", "école", "scolaire", "formation"}, []string{"éducation", "enseignement", "école", "formation"}},
	{"droits", []string{"droit", "droits", "liberté", "libertés", "garantie"}, []string{"droit", "liberté", "garantie", "protection"}},
	{"citoyens", []string{"citoyen", "citoyens", "citoyenne", "peuple"}, []string{"citoyen", "citoyenne", "peuple", "national"}},
	{"président", []string{"président", "présidence", "chef de l'état"}, []string{"président", "présidence", "chef"}},
	{"gouvernement", []string{"gouvernement", "ministre", "exécutif"}, []string{"gouvernement", "ministre", "exécutif"}},
	{"parlement", []string{"parlement", "assemblée", "député", "sénateur"}, []string{"parlement", "assemblée", "député"}},
	{"justice", []string{"justice", "tribunal", "cour", "judiciaire"}, []string{"justice", "tribunal", "cour"}},
	{"élections", []string{"élection", "vote", "suffrage", "scrutin"}, []string{"élection", "vote", "suffrage"}},
	{"sécurité", []string{"sécurité", "défense", "ordre", "protection"}, []string{"sécurité", "défense", "ordre"}},
	{"famille", []string{"famille", "parent", "mariage"}, []string{"famille", "parent", "mariage"}},
	{"travail", []string{"travail", "emploi", "profession"}, []string{"travail", "emploi", "profession"}},
	{"santé", []string{"santé", "médical", "soin"}, []string{"santé", "médical", "soin"}},
	{"propriété", []string{"propriété", "bien", "domaine"}, []string{"propriété", "bien", "domaine"}},
	{"religion", []string{"religion", "culte", "croyance"}, []string{"religion", "culte", "croyance"}},
	{"culture", []string{"culture", "art", "patrimoine"}, []string{"culture", "art", "patrimoine"}},
	{"environnement", []string{"environnement", "écologie", "nature"}, []string{"environnement", "écologie", "nature"}},
}

// rule adds keywords when any trigger appears in a question.
type rule struct {
	triggers []string
	keywords []string
}

var contextRules = []rule{
	{[]string{"enfant", "enfants"}, []string{"protection", "éducation", "famille", "droits"}},
	{[]string{"droit", "droits"}, []string{"garantie", "protection", "liberté"}},
	{[]string{"citoyen"}, []string{"devoir", "responsabilité", "participation"}},
	{[]string{"président"}, []string{"pouvoir", "mandat", "élection"}},
	{[]string{"gouvernement"}, []string{"formation", "responsabilité", "pouvoir"}},
}

var extendedRules = []rule{
	{[]string{"mandat", "président", "durée", "période"}, []string{"mandat", "président", "élection", "durée", "période", "sept ans", "renouvelable"}},
	{[]string{"droit", "droits", "liberté"}, []string{"droit", "liberté", "garantie", "protection", "fondamental"}},
	{[]string{"devoir", "devoirs", "obligation"}, []string{"devoir", "obligation", "responsabilité", "participation"}},
	{[]string{"éducation", "école", "enseignement"}, []string{"éducation", "enseignement", "formation", "école", "gratuit"}},
	{[]string{"famille", "parent", "mariage"}, []string{"famille", "mariage", "parent", "enfant"}},
	{[]string{"travail", "emploi", "profession"}, []string{"travail", "emploi", "rémunération", "syndicat", "grève"}},
	{[]string{"santé", "médical", "soin"}, []string{"santé", "médical", "soin", "bien-être"}},
}

var defaultExtended = []string{"droit", "garantie", "protection", "responsabilité", "pouvoir", "institution"}

var themes = []Theme{
	{"droits_fondamentaux", []string{"droit", "liberté", "garantie", "protection"}},
	{"institutions", []string{"institution", "organe", "autorité", "pouvoir"}},
	{"citoyenneté", []string{"citoyen", "devoir", "responsabilité", "participation"}},
	{"éducation_sociale", []string{"éducation", "formation", "enseignement", "école"}},
	{"famille_société", []string{"famille", "mariage", "parent", "enfant"}},
	{"travail_économie", []string{"travail", "emploi", "rémunération", "économie"}},
	{"santé_bien_être", []string{"santé", "médical", "soin", "bien-être"}},
	{"sécurité_ordre", []string{"sécurité", "ordre", "protection", "défense"}},
}

// synonym groups, in lookup order.
type group struct {
	concept  string
	synonyms []string
}

var synonyms = []group{
	{"droit", []string{"droit", "droits", "garantie", "garanties", "protection", "fondamental"}},
	{"liberté", []string{"liberté", "libertés", "libre", "expression", "conscience", "opinion"}},
	{"président", []string{"président", "présidence", "chef", "dirigeant", "élection présidentielle", "mandat présidentiel"}},
	{"gouvernement", []string{"gouvernement", "ministre", "ministère", "exécutif", "formation gouvernement", "premier ministre"}},
	{"parlement", []string{"parlement", "assemblée", "député", "sénateur", "législatif", "assemblée nationale", "sénat"}},
	{"tribunal", []string{"tribunal", "cour", "justice", "judiciaire", "constitutionnelle", "suprême"}},
	{"élection", []string{"élection", "électoral", "vote", "voter", "scrutin", "électeur", "suffrage"}},
	{"citoyen", []string{"citoyen", "citoyenne", "citoyens", "nationalité", "peuple", "national"}},
	{"république", []string{"république", "républicain", "état", "nation"}},
	{"constitution", []string{"constitution", "constitutionnel", "révision", "amendement"}},
	{"pouvoir", []string{"pouvoir", "pouvoirs", "autorité", "compétence", "prérogative"}},
	{"institution", []string{"institution", "institutions", "organe", "structure", "organisme"}},
	{"responsabilité", []string{"responsabilité", "responsable", "devoir", "obligation"}},
	{"mandat", []string{"mandat", "durée", "période", "exercice", "sept ans", "renouvellement"}},
	{"session", []string{"session", "séance", "réunion", "débat", "parlementaire"}},
	{"enfant", []string{"enfant", "enfants", "jeune", "jeunes", "mineur", "mineurs", "scolarité", "école", "éducation"}},
	{"éducation", []string{"éducation", "enseignement", "école", "scolaire", "formation", "apprentissage"}},
	{"protection", []string{"protection", "protéger", "sécurité", "bien-être", "sauvegarde"}},
	{"famille", []string{"famille", "parent", "parents", "maternité", "paternité", "mariage"}},
	{"santé", []string{"santé", "médical", "soin", "soins", "hôpital", "médicale"}},
	{"travail", []string{"travail", "emploi", "profession", "métier", "carrière", "rémunération"}},
	{"économie", []string{"économie", "économique", "financier", "budget", "argent", "fiscal"}},
	{"sécurité", []string{"sécurité", "défense", "armée", "police", "ordre", "militaire"}},
	{"culture", []string{"culture", "culturel", "art", "artistique", "patrimoine"}},
	{"environnement", []string{"environnement", "écologie", "nature", "pollution", "écologique"}},
	{"asile", []string{"asile", "réfugié", "persécution", "protection internationale"}},
	{"propriété", []string{"propriété", "propriétaire", "bien", "domaine", "expropriation"}},
	{"logement", []string{"logement", "habitation", "domicile", "résidence", "habitat"}},
	{"religion", []string{"religion", "religieux", "culte", "croyance", "confession"}},
	{"révision", []string{"révision", "modifier", "changer", "amender", "réviser"}},
	{"promulgation", []string{"promulgation", "promulguer", "publication", "entrée en vigueur"}},
	{"haute trahison", []string{"haute trahison", "trahison", "traître", "trahison nationale"}},
	{"état d'urgence", []string{"état d'urgence", "urgence", "crise", "exceptionnel", "siège"}},
	{"dissolution", []string{"dissolution", "dissoudre", "dissous", "dissoudre assemblée"}},
	{"obligation", []string{"obligation", "obligatoire", "devoir", "contrainte", "forcé"}},
	{"participation", []string{"participation", "participer", "engagement", "implication"}},
	{"contrôle", []string{"contrôle", "surveillance", "vérification", "inspection"}},
	{"indépendance", []string{"indépendance", "indépendant", "autonomie", "séparation"}},
	{"transparence", []string{"transparence", "transparent", "public", "ouvert"}},
	{"égalité", []string{"égalité", "égal", "équité", "juste", "équitable"}},
	{"dignité", []string{"dignité", "respect", "honneur", "considération"}},
	{"intégrité", []string{"intégrité", "intègre", "honnête", "probité"}},
	{"souveraineté", []string{"souveraineté", "souverain", "indépendant", "autonome"}},
	{"démocratie", []string{"démocratie", "démocratique", "populaire", "républicain"}},
	{"territoire", []string{"territoire", "territorial", "national", "pays"}},
	{"langue", []string{"langue", "linguistique", "français", "nationale"}},
	{"diversité", []string{"diversité", "divers", "variété", "pluralisme"}},
	{"tolérance", []string{"tolérance", "tolérant", "acceptation", "respect"}},
	{"paix", []string{"paix", "pacifique", "harmonie", "conciliation"}},
	{"développement", []string{"développement", "développer", "progrès", "croissance"}},
	{"bien-être", []string{"bien-être", "bienêtre", "santé", "bonheur"}},
	{"solidarité", []string{"solidarité", "solidaire", "entraide", "coopération"}},
	{"justice", []string{"justice", "juste", "équité", "équitable"}},
	{"ordre", []string{"ordre", "organisation", "structure", "discipline"}},
	{"stabilité", []string{"stabilité", "stable", "équilibre", "équilibré"}},
}
