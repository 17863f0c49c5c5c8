package ui

// Labels holds every user-facing string in one language
type Labels struct {
	Language string

	Title       string
	CPU         string
	Memory      string
	Disk        string
	Network     string
	Battery     string
	Temperature string
	Uptime      string
	Processes   string
	Alerts      string

	Cores       string
	Frequency   string
	Used        string
	Total       string
	Available   string
	Upload      string
	Download    string
	Plugged     string
	OnBattery   string
	TimeLeft    string
	NoBattery   string
	NoSensor    string
	NoAlerts    string
	NoProcesses string
	Waiting     string

	ColPID    string
	ColName   string
	ColCPU    string
	ColMemory string

	SortedBy    string
	Help        string
	LanguageSet string
}

var catalog = map[string]Labels{
	"en": {
		Language:    "en",
		Title:       "System Monitor",
		CPU:         "CPU",
		Memory:      "Memory",
		Disk:        "Disk",
		Network:     "Network",
		Battery:     "Battery",
		Temperature: "Temperature",
		Uptime:      "Uptime",
		Processes:   "Top processes",
		Alerts:      "Recent alerts",
		Cores:       "Cores",
		Frequency:   "Frequency",
		Used:        "Used",
		Total:       "Total",
		Available:   "Available",
		Upload:      "Upload",
		Download:    "Download",
		Plugged:     "Plugged in",
		OnBattery:   "On battery",
		TimeLeft:    "Time left",
		NoBattery:   "No battery",
		NoSensor:    "n/a",
		NoAlerts:    "No alerts",
		NoProcesses: "No processes found",
		Waiting:     "Collecting first sample...",
		ColPID:      "PID",
		ColName:     "Name",
		ColCPU:      "CPU %",
		ColMemory:   "MEM %",
		SortedBy:    "sorted by",
		Help:        "q quit • s sort • l language • c clear alerts",
		LanguageSet: "Language set to English",
	},
	"fr": {
		Language:    "fr",
		Title:       "Moniteur système",
		CPU:         "Processeur",
		Memory:      "Mémoire",
		Disk:        "Disque",
		Network:     "Réseau",
		Battery:     "Batterie",
		Temperature: "Température",
		Uptime:      "Temps de fonctionnement",
		Processes:   "Processus principaux",
		Alerts:      "Alertes récentes",
		Cores:       "Cœurs",
		Frequency:   "Fréquence",
		Used:        "Utilisé",
		Total:       "Total",
		Available:   "Disponible",
		Upload:      "Envoi",
		Download:    "Réception",
		Plugged:     "Branché",
		OnBattery:   "Sur batterie",
		TimeLeft:    "Temps restant",
		NoBattery:   "Pas de batterie",
		NoSensor:    "n/d",
		NoAlerts:    "Aucune alerte",
		NoProcesses: "Aucun processus",
		Waiting:     "Premier échantillon en cours...",
		ColPID:      "PID",
		ColName:     "Nom",
		ColCPU:      "CPU %",
		ColMemory:   "MÉM %",
		SortedBy:    "trié par",
		Help:        "q quitter • s tri • l langue • c effacer les alertes",
		LanguageSet: "Langue réglée sur le français",
	},
}

// LabelsFor returns the catalog for lang, falling back to French
func LabelsFor(lang string) Labels {
	if l, ok := catalog[lang]; ok {
		return l
	}
	return catalog["fr"]
}
