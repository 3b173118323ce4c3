// Command export_rankings dumps the community military leaderboard and
// conquest stats to a spreadsheet for the operations team.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"

	"github.com/dominionwar/dominion/internal/config"
	"github.com/dominionwar/dominion/internal/database"
	"github.com/dominionwar/dominion/internal/models"
	"github.com/dominionwar/dominion/internal/repositories"
	"github.com/dominionwar/dominion/pkg/logger"
)

func main() {
	output := flag.String("o", "rankings.xlsx", "output file")
	limit := flag.Int("limit", 100, "number of communities to export")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}
	logger.Init()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", err)
	}

	communityRepo := repositories.NewCommunityRepository(db)
	communities, err := communityRepo.GetLeaderboard(*limit)
	if err != nil {
		logger.Fatal("failed to load leaderboard", err)
	}

	f := excelize.NewFile()
	sheet := "Rankings"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Rank", "Community", "Score", "Members", "Win Streak", "Lifetime Conquests"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i, community := range communities {
		var state models.CommunityModifierState
		db.Where("community_id = ?", community.ID).First(&state)

		row := i + 2
		values := []interface{}{
			i + 1,
			community.Name,
			community.RankScore,
			community.MemberCount,
			state.WinStreak,
			state.LifetimeConquests,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	if err := f.SaveAs(*output); err != nil {
		logger.Fatal("failed to save spreadsheet", err)
	}
	fmt.Printf("exported %d communities to %s\n", len(communities), *output)
}
