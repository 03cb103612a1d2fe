package avito

import (
	"avito-scraper/config"
	"avito-scraper/models"
	"avito-scraper/utils"
)

// Jobs builds one ScrapeJob per configured region.
func Jobs(cfg *config.Config) []models.ScrapeJob {
	jobs := make([]models.ScrapeJob, 0, len(cfg.Regions))
	for _, region := range cfg.Regions {
		jobs = append(jobs, models.ScrapeJob{
			Region: region,
			URL:    cfg.RegionURL(region),
			Pages:  cfg.MaxPages,
		})
	}
	return jobs
}

// RunRegions runs jobs one after another. A failed region is recorded and the
// next one still runs; once stop is set the remaining regions are skipped.
func RunRegions(r *Runner, jobs []models.ScrapeJob, stop *StopSignal) []models.RunResult {
	results := make([]models.RunResult, 0, len(jobs))

	for i, job := range jobs {
		if stop.Stopped() {
			utils.Warn("Stop requested, skipping %d remaining regions", len(jobs)-i)
			break
		}

		utils.Section("Region " + job.Region)
		result := r.Run(job, stop)
		if result.Err != nil {
			utils.Error("Region %s failed after %d pages (%d listings saved): %v",
				job.Region, result.Pages, result.Records, result.Err)
		} else {
			utils.Success("Region %s done: %d pages, %d listings in %d batches",
				job.Region, result.Pages, result.Records, result.Batches)
		}
		results = append(results, result)
	}

	return results
}
