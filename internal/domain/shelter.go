package domain

// Shelter is a coastal evacuation shelter.
type Shelter struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Position   Geo      `json:"position"`
	Capacity   int      `json:"capacity"`
	Occupancy  int      `json:"current_occupancy"`
	Contact    string   `json:"contact"`
	Address    string   `json:"address"`
	Facilities []string `json:"facilities"`
}

// NearlyFull reports whether occupancy is above 80% of capacity.
func (s Shelter) NearlyFull() bool {
	if s.Capacity <= 0 {
		return true
	}
	return float64(s.Occupancy)/float64(s.Capacity) > 0.8
}

// CoastalShelters is the built-in shelter directory for the Indian coastline.
func CoastalShelters() []Shelter {
	return []Shelter{
		{ID: "sh_mum_1", Name: "Mumbai Coastal Shelter", Position: Geo{Lat: 19.0760, Lng: 72.8777}, Capacity: 500, Occupancy: 120, Contact: "+91-22-12345678", Address: "Marine Drive, Mumbai", Facilities: []string{"Food", "Water", "Medical", "Restrooms"}},
		{ID: "sh_chn_1", Name: "Chennai Marina Shelter", Position: Geo{Lat: 13.0827, Lng: 80.2707}, Capacity: 400, Occupancy: 95, Contact: "+91-44-87654321", Address: "Marina Beach, Chennai", Facilities: []string{"Food", "Water", "Medical"}},
		{ID: "sh_koc_1", Name: "Kochi Evacuation Center", Position: Geo{Lat: 9.9312, Lng: 76.2673}, Capacity: 300, Occupancy: 60, Contact: "+91-484-223344", Address: "Fort Kochi, Kochi", Facilities: []string{"Food", "Water", "Restrooms"}},
		{ID: "sh_viz_1", Name: "Visakhapatnam Coastal Shelter", Position: Geo{Lat: 17.6868, Lng: 83.2185}, Capacity: 350, Occupancy: 110, Contact: "+91-891-556677", Address: "RK Beach, Visakhapatnam", Facilities: []string{"Food", "Water", "Medical", "Restrooms"}},
		{ID: "sh_kol_1", Name: "Haldia Relief Shelter", Position: Geo{Lat: 22.0253, Lng: 88.0583}, Capacity: 280, Occupancy: 70, Contact: "+91-3224-445566", Address: "Haldia, West Bengal", Facilities: []string{"Food", "Water"}},
		{ID: "sh_man_1", Name: "Mangaluru Coastal Shelter", Position: Geo{Lat: 12.9141, Lng: 74.8560}, Capacity: 220, Occupancy: 80, Contact: "+91-824-334455", Address: "Panambur Beach, Mangaluru", Facilities: []string{"Food", "Water", "Medical"}},
		{ID: "sh_kky_1", Name: "Kanyakumari Emergency Shelter", Position: Geo{Lat: 8.0883, Lng: 77.5385}, Capacity: 180, Occupancy: 55, Contact: "+91-4652-223344", Address: "Kanyakumari Beach, TN", Facilities: []string{"Food", "Water"}},
		{ID: "sh_pbd_1", Name: "Porbandar Relief Center", Position: Geo{Lat: 21.6417, Lng: 69.6293}, Capacity: 200, Occupancy: 40, Contact: "+91-286-556677", Address: "Porbandar, Gujarat", Facilities: []string{"Food", "Water", "Medical"}},
		{ID: "sh_prd_1", Name: "Paradip Coastal Shelter", Position: Geo{Lat: 20.3165, Lng: 86.6085}, Capacity: 260, Occupancy: 100, Contact: "+91-6722-667788", Address: "Paradip, Odisha", Facilities: []string{"Food", "Water", "Restrooms"}},
		{ID: "sh_tut_1", Name: "Tuticorin Evacuation Center", Position: Geo{Lat: 8.7642, Lng: 78.1348}, Capacity: 240, Occupancy: 90, Contact: "+91-461-778899", Address: "Thoothukudi, TN", Facilities: []string{"Food", "Water", "Medical"}},
	}
}
