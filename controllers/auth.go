package controllers

import (
	"net/http"

	"github.com/BerniceZTT/shop_end/models"
	"github.com/BerniceZTT/shop_end/repository"
	"github.com/BerniceZTT/shop_end/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Login 用户登录
func Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, "无效的请求参数: "+err.Error(), http.StatusBadRequest)
		return
	}

	utils.Logger.Info().
		Str("username", req.Username).
		Msg("登录尝试")

	usersCollection := repository.Collection(repository.UsersCollection)
	var user models.User
	err := usersCollection.FindOne(repository.GetContext(), bson.M{"username": req.Username}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.Logger.Info().Str("username", req.Username).Msg("登录失败: 用户名不存在")
			utils.ErrorResponse(c, "用户名或密码错误", http.StatusUnauthorized)
			return
		}
		utils.Logger.Error().Err(err).Msg("查询用户出错")
		utils.ErrorResponse(c, "登录失败: 数据库错误", http.StatusInternalServerError)
		return
	}

	// 检查账户状态
	if user.Status == models.UserStatusPENDING {
		utils.Logger.Info().Str("username", req.Username).Msg("登录失败: 账户待审核")
		utils.ErrorResponse(c, "账户正在审核中，请等待审核通过", http.StatusForbidden)
		return
	}
	if user.Status == models.UserStatusREJECTED {
		utils.Logger.Info().Str("username", req.Username).Msg("登录失败: 账户已被拒绝")
		utils.ErrorResponse(c, "账户已被拒绝", http.StatusForbidden)
		return
	}

	// 验证密码
	if !utils.VerifyPassword(req.Password, user.Password) {
		utils.Logger.Info().Str("username", req.Username).Msg("登录失败: 密码错误")
		utils.ErrorResponse(c, "用户名或密码错误", http.StatusUnauthorized)
		return
	}

	// 生成JWT令牌
	token, err := utils.GenerateToken(user)
	if err != nil {
		utils.Logger.Error().Err(err).Msg("生成token失败")
		utils.ErrorResponse(c, "生成登录令牌失败，请重试", http.StatusInternalServerError)
		return
	}

	utils.Logger.Info().Str("username", user.Username).Msg("登录成功")
	utils.SuccessResponse(c, gin.H{
		"token": token,
		"user": gin.H{
			"_id":      user.ID.Hex(),
			"username": user.Username,
			"role":     user.Role,
			"phone":    user.Phone,
		},
	}, "")
}

// ValidateToken 验证当前token是否有效，并确认账户仍然存在且已审核通过
func ValidateToken(c *gin.Context) {
	user, err := utils.GetUser(c)
	if err != nil {
		utils.ErrorResponse(c, "未授权访问", http.StatusUnauthorized)
		return
	}

	dbUser, err := repository.FindUserByID(user.ID)
	if err != nil {
		utils.Logger.Warn().Err(err).Str("userId", user.ID).Msg("token对应的用户不存在")
		utils.ErrorResponse(c, "账户不存在或已被删除", http.StatusUnauthorized)
		return
	}
	if dbUser.Status != models.UserStatusAPPROVED {
		utils.ErrorResponse(c, "账户状态异常", http.StatusForbidden)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"user": gin.H{
			"_id":      dbUser.ID.Hex(),
			"username": dbUser.Username,
			"role":     dbUser.Role,
			"phone":    dbUser.Phone,
		},
	}, "")
}
