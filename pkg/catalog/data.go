package catalog

import "github.com/NERVsystems/tripmcp/pkg/geo"

func loc(id, name, city string, kind Kind, lat, lon float64) Location {
	return Location{
		ID:          id,
		Name:        name,
		City:        city,
		Kind:        kind,
		Coordinates: geo.Location{Latitude: lat, Longitude: lon},
	}
}

var defaultLocations = []Location{
	loc("nyc-jfk", "JFK Airport", "New York", KindAirport, 40.6413, -73.7781),
	loc("nyc-lga", "LaGuardia Airport", "New York", KindAirport, 40.7769, -73.8740),
	loc("nyc-ewr", "Newark Liberty Airport", "New York", KindAirport, 40.6895, -74.1745),
	loc("nyc-gct", "Grand Central Terminal", "New York", KindTrainStation, 40.7527, -73.9772),
	loc("nyc-ps", "Penn Station", "New York", KindTrainStation, 40.7505, -73.9935),
	loc("nyc-ts", "Times Square", "New York", KindLandmark, 40.7580, -73.9855),
	loc("nyc-cp", "Central Park", "New York", KindLandmark, 40.7812, -73.9665),

	loc("sf-sfo", "San Francisco International Airport", "San Francisco", KindAirport, 37.6213, -122.3790),
	loc("sf-oak", "Oakland International Airport", "San Francisco", KindAirport, 37.7214, -122.2208),
	loc("sf-sjc", "San Jose International Airport", "San Francisco", KindAirport, 37.3639, -121.9289),
	loc("sf-gg", "Golden Gate Bridge", "San Francisco", KindLandmark, 37.8199, -122.4783),
	loc("sf-fwharf", "Fisherman's Wharf", "San Francisco", KindLandmark, 37.8080, -122.4177),

	loc("lon-lhr", "Heathrow Airport", "London", KindAirport, 51.4700, -0.4543),
	loc("lon-lgw", "Gatwick Airport", "London", KindAirport, 51.1537, -0.1821),
	loc("lon-stp", "St Pancras International", "London", KindTrainStation, 51.5320, -0.1263),
	loc("lon-vic", "Victoria Station", "London", KindTrainStation, 51.4952, -0.1441),
	loc("lon-eye", "London Eye", "London", KindLandmark, 51.5033, -0.1195),
	loc("lon-tower", "Tower of London", "London", KindLandmark, 51.5081, -0.0759),
}

// defaultModes is ordered the way routes are synthesized
var defaultModes = []TransportMode{
	{ID: "taxi", Name: "Taxi", Icon: "🚕", Description: "Door-to-door service with a licensed taxi"},
	{ID: "uber", Name: "Uber", Icon: "🚗", Description: "Ridesharing service with Uber"},
	{ID: "lyft", Name: "Lyft", Icon: "🚙", Description: "Ridesharing service with Lyft"},
	{ID: "subway", Name: "Subway", Icon: "🚇", Description: "Underground metro/subway service"},
	{ID: "bus", Name: "Bus", Icon: "🚌", Description: "Public bus service"},
	{ID: "train", Name: "Train", Icon: "🚆", Description: "Train service between stations"},
	{ID: "tram", Name: "Tram", Icon: "🚊", Description: "Light rail/tram service"},
	{ID: "ferry", Name: "Ferry", Icon: "⛴️", Description: "Water transport service"},
	{ID: "bike", Name: "Bike Share", Icon: "🚲", Description: "Bike sharing service"},
	{ID: "scooter", Name: "Scooter", Icon: "🛴", Description: "Electric scooter rental"},
	{ID: "walk", Name: "Walking", Icon: "🚶", Description: "Walking directions"},
}
