package repository

import (
	"context"
	"fmt"

	"MemeArena/internal/model"

	"gorm.io/gorm"
)

const getLeaderboardSQL = `
CREATE OR REPLACE FUNCTION get_leaderboard(limit_count integer DEFAULT 50)
RETURNS TABLE (
	user_id uuid,
	username varchar,
	display_name varchar,
	avatar_url text,
	score bigint,
	total_votes_received bigint,
	total_battles_won bigint,
	total_memes_created bigint,
	total_reactions_received bigint,
	rank bigint
) LANGUAGE sql STABLE AS $$
	SELECT le.user_id, p.username, p.display_name, p.avatar_url,
	       le.score, le.total_votes_received, le.total_battles_won,
	       le.total_memes_created, le.total_reactions_received,
	       ROW_NUMBER() OVER (ORDER BY le.score DESC, le.updated_at ASC) AS rank
	FROM leaderboard_entries le
	JOIN profiles p ON p.id = le.user_id
	ORDER BY le.score DESC, le.updated_at ASC
	LIMIT limit_count
$$;`

// 胜场：已结束对战中得票严格多的一方，平票不计
const updateLeaderboardScoreTpl = `
CREATE OR REPLACE FUNCTION update_leaderboard_score(user_uuid uuid)
RETURNS void LANGUAGE plpgsql AS $$
DECLARE
	v_votes bigint;
	v_wins bigint;
	v_memes bigint;
	v_reactions bigint;
BEGIN
	SELECT COUNT(*) INTO v_votes
	FROM votes v JOIN memes m ON m.id = v.meme_id
	WHERE m.creator_id = user_uuid;

	SELECT COUNT(*) INTO v_memes FROM memes WHERE creator_id = user_uuid;

	SELECT COUNT(*) INTO v_reactions
	FROM reactions r JOIN memes m ON m.id = r.meme_id
	WHERE m.creator_id = user_uuid;

	SELECT COUNT(*) INTO v_wins
	FROM (
		SELECT CASE
			WHEN t.a_votes > t.b_votes THEN t.meme_a_id
			WHEN t.b_votes > t.a_votes THEN t.meme_b_id
		END AS winner_id
		FROM (
			SELECT b.meme_a_id, b.meme_b_id,
			       (SELECT COUNT(*) FROM votes WHERE battle_id = b.id AND meme_id = b.meme_a_id) AS a_votes,
			       (SELECT COUNT(*) FROM votes WHERE battle_id = b.id AND meme_id = b.meme_b_id) AS b_votes
			FROM battles b
			WHERE b.status = 'completed'
		) t
	) w
	JOIN memes m ON m.id = w.winner_id
	WHERE m.creator_id = user_uuid;

	INSERT INTO leaderboard_entries (user_id, score, total_votes_received, total_battles_won,
		total_memes_created, total_reactions_received, updated_at)
	VALUES (user_uuid,
		v_votes * %d + v_wins * %d + v_memes * %d + v_reactions * %d,
		v_votes, v_wins, v_memes, v_reactions, now())
	ON CONFLICT (user_id) DO UPDATE SET
		score = EXCLUDED.score,
		total_votes_received = EXCLUDED.total_votes_received,
		total_battles_won = EXCLUDED.total_battles_won,
		total_memes_created = EXCLUDED.total_memes_created,
		total_reactions_received = EXCLUDED.total_reactions_received,
		updated_at = EXCLUDED.updated_at;
END;
$$;`

// ProcedureStatements 返回排行榜相关存储过程的 DDL
func ProcedureStatements() []string {
	return []string{
		getLeaderboardSQL,
		fmt.Sprintf(updateLeaderboardScoreTpl,
			model.ScoreWeightVote, model.ScoreWeightWin, model.ScoreWeightMeme, model.ScoreWeightReaction),
	}
}

// InstallProcedures 安装（或覆盖）排行榜存储过程，需在 AutoMigrate 之后执行
func InstallProcedures(ctx context.Context, db *gorm.DB) error {
	for _, stmt := range ProcedureStatements() {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("安装存储过程失败: %w", err)
		}
	}
	return nil
}
