package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/dhobi-app/ordering/internal/catalog"
	"github.com/dhobi-app/ordering/internal/config"
	"github.com/dhobi-app/ordering/internal/router"
	"github.com/dhobi-app/ordering/internal/schedule"
	"github.com/dhobi-app/ordering/internal/store"
	"github.com/dhobi-app/ordering/internal/ws"
	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()

	st := store.New()
	seedDemoData(st)

	hub := ws.NewHub()
	go hub.Run()

	r := router.New(cfg, st, hub)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatal(err)
	}
}

// seedDemoData loads a small fixture set so a fresh server is usable
// immediately: one branch's price list and a handful of pickup slots.
func seedDemoData(st *store.Store) {
	const (
		companyID = "1"
		branchID  = "1"
	)

	st.SeedPrices(companyID, branchID, []catalog.PriceEntry{
		{ID: 1, GarmentTypeID: 1, GarmentTypeName: "Shirt", ServiceID: 1, ServiceName: "Wash & Iron", Price: decimal.NewFromInt(10), Currency: "INR"},
		{ID: 2, GarmentTypeID: 2, GarmentTypeName: "Trousers", ServiceID: 1, ServiceName: "Wash & Iron", Price: decimal.NewFromInt(15), Currency: "INR"},
		{ID: 3, GarmentTypeID: 3, GarmentTypeName: "Saree", ServiceID: 2, ServiceName: "Dry Clean", Price: decimal.NewFromInt(60), Currency: "INR"},
		{ID: 4, GarmentTypeID: 1, GarmentTypeName: "Shirt", ServiceID: 2, ServiceName: "Dry Clean", Price: decimal.NewFromInt(40), Currency: "INR"},
		{ID: 5, GarmentTypeID: 4, GarmentTypeName: "Bedsheet", ServiceID: 3, ServiceName: "Steam Press", Price: decimal.NewFromInt(25), Currency: "INR"},
	})

	st.SeedSchedules(
		[]schedule.Definition{
			{ScheduleID: 1, IsActive: true},
			{ScheduleID: 2, IsActive: true},
			{ScheduleID: 3, IsActive: true},
			{ScheduleID: 4, IsActive: false},
		},
		[]schedule.Slot{
			{ScheduleID: 1, Window: "8:00 AM to 10:00 AM", IsActive: true, CompanyID: companyID},
			{ScheduleID: 2, Window: "2:00 PM to 4:00 PM", IsActive: true, CompanyID: companyID},
			{ScheduleID: 3, Window: "6:00 PM to 8:00 PM", IsActive: true, CompanyID: companyID},
			{ScheduleID: 4, Window: "10:00 PM to 11:00 PM", IsActive: true, CompanyID: companyID},
		},
	)
}
