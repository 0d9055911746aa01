package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/contactkeval/option-pricer/internal/data"
	"github.com/contactkeval/option-pricer/internal/pricing"
	"github.com/contactkeval/option-pricer/internal/report"
	"github.com/contactkeval/option-pricer/internal/surface"
)

func main() {
	mode := flag.String("mode", "price", "price, iv or surface")
	optType := flag.String("type", "both", "call, put or both")
	market := flag.Float64("market", 0, "underlying price")
	vol := flag.Float64("vol", 0, "volatility (price mode)")
	observed := flag.Float64("price", 0, "observed option price (iv mode)")
	strike := flag.Float64("strike", 0, "strike price")
	term := flag.Float64("term", 0, "time to expiry in years")
	rate := flag.Float64("rate", 0, "risk-free rate")
	yield := flag.Float64("yield", 0, "dividend yield")
	configPath := flag.String("config", "", "path to JSON surface config (surface mode)")
	dataDir := flag.String("data-dir", "", "directory of local CSV bars, optional")
	rest := flag.Bool("rest", false, "run as REST server")
	port := flag.String("port", ":8080", "REST server listen address")
	flag.Parse()

	if *rest {
		serve(*port)
		return
	}

	switch *mode {
	case "price":
		runPrice(pricing.Params{Market: *market, Vol: *vol, Strike: *strike, Term: *term, Rate: *rate, Yield: *yield}, *optType)
	case "iv":
		runImpliedVol(pricing.Params{Market: *market, Strike: *strike, Term: *term, Rate: *rate, Yield: *yield}, *observed, *optType)
	case "surface":
		runSurface(*configPath, *dataDir)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}

func runPrice(p pricing.Params, optType string) {
	switch strings.ToLower(optType) {
	case "call":
		px, diags, err := pricing.CallPrice(p)
		if err != nil {
			log.Fatalf("pricing failed: %v", err)
		}
		printDiags(diags)
		fmt.Printf("call: %.6f\n", px)
	case "put":
		px, diags, err := pricing.PutPrice(p)
		if err != nil {
			log.Fatalf("pricing failed: %v", err)
		}
		printDiags(diags)
		fmt.Printf("put: %.6f\n", px)
	default:
		call, put, diags, err := pricing.CallPutPrices(p)
		if err != nil {
			log.Fatalf("pricing failed: %v", err)
		}
		printDiags(diags)
		fmt.Printf("call: %.6f\nput: %.6f\n", call, put)
	}
}

func runImpliedVol(p pricing.Params, observed float64, optType string) {
	solver := pricing.NewSolver()
	var res pricing.IVResult
	var err error
	if strings.ToLower(optType) == "put" {
		res, err = solver.ImpliedPut(p, observed)
	} else {
		res, err = solver.ImpliedCall(p, observed)
	}
	if err != nil {
		log.Fatalf("implied vol failed: %v", err)
	}
	fmt.Printf("vol: %.6f\nresidual: %.3g\niterations: %d\n", res.Vol, res.Residual, res.Iterations)
}

func runSurface(configPath, dataDir string) {
	if configPath == "" {
		log.Fatal("surface mode requires -config")
	}
	cfgData, err := os.ReadFile(configPath)
	if err != nil {
		log.Fatalf("reading config: %v", err)
	}
	var cfg surface.Config
	if err := json.Unmarshal(cfgData, &cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./out"
	}

	start := time.Now()
	builder := surface.NewBuilder(&cfg, chooseProvider(dataDir))
	surf, err := builder.Build(time.Now().UTC())
	if err != nil {
		log.Fatalf("surface build failed: %v", err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		log.Printf("[warn] could not create output dir %s: %v", cfg.OutputDir, err)
	}
	_ = report.WriteJSON(surf, cfg.OutputDir)
	_ = report.WriteCSV(surf, cfg.OutputDir)
	log.Printf("[done] finished in %v, wrote %d points to %s", time.Since(start), len(surf.Points), cfg.OutputDir)
}

// chooseProvider prefers the market-data API when a key is present, with
// local CSV bars layered on top when a data directory is given.
func chooseProvider(dataDir string) data.Provider {
	var prov data.Provider
	if apiKey := os.Getenv("MASSIVE_API_KEY"); apiKey != "" {
		prov = data.NewMassiveDataProvider(apiKey)
		log.Printf("[info] massive provider enabled")
	} else {
		prov = data.NewSyntheticProvider(time.Now().UnixNano())
		log.Printf("[info] synthetic provider enabled")
	}
	if dataDir != "" {
		prov = data.NewLocalFileDataProvider(dataDir, prov)
		log.Printf("[info] local CSV bars from %s", dataDir)
	}
	return prov
}

func printDiags(diags []pricing.Diagnostic) {
	for _, d := range diags {
		log.Printf("[warn] %s", d)
	}
}

type priceRequest struct {
	Market float64 `json:"market"`
	Vol    float64 `json:"vol"`
	Strike float64 `json:"strike"`
	Term   float64 `json:"term"`
	Rate   float64 `json:"rate"`
	Yield  float64 `json:"yield"`
	Type   string  `json:"type,omitempty"` // call, put or both
}

type priceResponse struct {
	Call        *float64             `json:"call,omitempty"`
	Put         *float64             `json:"put,omitempty"`
	Diagnostics []pricing.Diagnostic `json:"diagnostics,omitempty"`
}

type ivRequest struct {
	Market   float64 `json:"market"`
	Observed float64 `json:"observed"`
	Strike   float64 `json:"strike"`
	Term     float64 `json:"term"`
	Rate     float64 `json:"rate"`
	Yield    float64 `json:"yield"`
	Type     string  `json:"type,omitempty"`
}

type ivResponse struct {
	Vol        float64 `json:"vol"`
	Residual   float64 `json:"residual"`
	Iterations int     `json:"iterations"`
}

func serve(port string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/price", handlePrice)
	mux.HandleFunc("/iv", handleImpliedVol)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	log.Printf("[info] starting REST server on %s", port)
	log.Fatal(http.ListenAndServe(port, mux))
}

func handlePrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p := pricing.Params{Market: req.Market, Vol: req.Vol, Strike: req.Strike, Term: req.Term, Rate: req.Rate, Yield: req.Yield}

	var resp priceResponse
	switch strings.ToLower(req.Type) {
	case "call":
		px, diags, err := pricing.CallPrice(p)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		resp = priceResponse{Call: &px, Diagnostics: diags}
	case "put":
		px, diags, err := pricing.PutPrice(p)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		resp = priceResponse{Put: &px, Diagnostics: diags}
	default:
		call, put, diags, err := pricing.CallPutPrices(p)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		resp = priceResponse{Call: &call, Put: &put, Diagnostics: diags}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func handleImpliedVol(w http.ResponseWriter, r *http.Request) {
	var req ivRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p := pricing.Params{Market: req.Market, Strike: req.Strike, Term: req.Term, Rate: req.Rate, Yield: req.Yield}

	solver := pricing.NewSolver()
	var res pricing.IVResult
	var err error
	if strings.ToLower(req.Type) == "put" {
		res, err = solver.ImpliedPut(p, req.Observed)
	} else {
		res, err = solver.ImpliedCall(p, req.Observed)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ivResponse{Vol: res.Vol, Residual: res.Residual, Iterations: res.Iterations})
}
