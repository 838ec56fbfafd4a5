package main

import (
	"time"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
)

type incident struct {
	id          string
	name        string
	category    string
	severity    domain.Priority
	description string
	status      domain.Status
	reporter    string
	age         time.Duration
	lat, lng    float64
}

// incidents are ocean hazards along the Indian coastline.
var incidents = []incident{
	{id: "in_cyc_viz", name: "Cyclone Warning - Bay of Bengal", category: "Cyclone", severity: domain.PriorityHigh,
		description: "Cyclone system approaching the Andhra coast", status: domain.StatusPending, reporter: "INCOIS",
		lat: 18.1, lng: 84.0},
	{id: "in_stm_chn", name: "Storm Surge Alert - Chennai", category: "Storm Surge", severity: domain.PriorityCritical,
		description: "Storm surge expected near Chennai shoreline", status: domain.StatusApproved, reporter: "IMD",
		age: time.Hour, lat: 12.8, lng: 80.3},
	{id: "in_tsu_east", name: "Tsunami Advisory - East Coast", category: "Tsunami Advisory", severity: domain.PriorityMedium,
		description: "Distant tsunami advisory, monitor updates", status: domain.StatusPending, reporter: "INCOIS",
		age: 2 * time.Hour, lat: 16.8, lng: 82.8},
	{id: "in_fld_mum", name: "Coastal Flooding - Mumbai", category: "Coastal Flooding", severity: domain.PriorityHigh,
		description: "High tide and heavy rain causing coastal flooding", status: domain.StatusApproved, reporter: "BMC",
		age: 3 * time.Hour, lat: 19.1, lng: 72.9},
	{id: "in_oil_prd", name: "Oil Spill - Paradip", category: "Oil Spill", severity: domain.PriorityMedium,
		description: "Reported oil sheen near Paradip port", status: domain.StatusPending, reporter: "Coast Guard",
		age: 30 * time.Minute, lat: 20.3, lng: 86.7},
	{id: "in_wav_kky", name: "High Waves - Kanyakumari", category: "High Waves", severity: domain.PriorityMedium,
		description: "High swell waves near Kanyakumari", status: domain.StatusPending, reporter: "Fishermen Network",
		age: 15 * time.Minute, lat: 8.2, lng: 77.6},
}
